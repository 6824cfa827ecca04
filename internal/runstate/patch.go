package runstate

import (
	"time"

	"github.com/eykd/scenariodoc/internal/entity"
)

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T {
	return &v
}

// BuildPatch lists build fields to overwrite; nil fields are left alone.
type BuildPatch struct {
	Name     *string
	Revision *string
	Date     *time.Time
	Status   *entity.Status
}

func (p BuildPatch) apply(b *entity.Build) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Revision != nil {
		b.Revision = *p.Revision
	}
	if p.Date != nil {
		b.Date = *p.Date
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
}

// UseCasePatch lists use case fields to overwrite; nil fields are left alone.
// Labels replaces the whole label list.
type UseCasePatch struct {
	ID          *string
	Name        *string
	Description *string
	Status      *entity.Status
	Labels      []string
}

func (p UseCasePatch) apply(u *entity.UseCase) {
	if p.ID != nil {
		u.ID = *p.ID
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Description != nil {
		u.Description = *p.Description
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.Labels != nil {
		u.Labels = copyStrings(p.Labels)
	}
}

// ScenarioPatch lists scenario fields to overwrite; nil fields are left alone.
// Labels replaces the whole label list.
type ScenarioPatch struct {
	ID          *string
	Name        *string
	Description *string
	Status      *entity.Status
	Labels      []string
}

func (p ScenarioPatch) apply(sc *entity.Scenario) {
	if p.ID != nil {
		sc.ID = *p.ID
	}
	if p.Name != nil {
		sc.Name = *p.Name
	}
	if p.Description != nil {
		sc.Description = *p.Description
	}
	if p.Status != nil {
		sc.Status = *p.Status
	}
	if p.Labels != nil {
		sc.Labels = copyStrings(p.Labels)
	}
}
