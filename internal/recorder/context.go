package recorder

import (
	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/runstate"
	"github.com/eykd/scenariodoc/internal/sanitize"
)

// EntityContext edits the metadata of the open use case or scenario before
// it is written.
type EntityContext struct {
	r    *Recorder
	kind entity.Kind
}

// UseCaseContext returns a handle on the open use case.
func (r *Recorder) UseCaseContext() EntityContext {
	return EntityContext{r: r, kind: entity.KindUseCase}
}

// ScenarioContext returns a handle on the open scenario.
func (r *Recorder) ScenarioContext() EntityContext {
	return EntityContext{r: r, kind: entity.KindScenario}
}

// SetDescription replaces the description.
func (c EntityContext) SetDescription(description string) error {
	return c.update(func([]string) (*string, []string, error) {
		return &description, nil, nil
	})
}

// AddLabels appends labels that are not already present. If any label is
// malformed a *sanitize.LabelFormatError is returned and nothing is added.
func (c EntityContext) AddLabels(labels ...string) error {
	return c.update(func(current []string) (*string, []string, error) {
		if err := sanitize.ValidateLabels(labels); err != nil {
			return nil, nil, err
		}
		merged := append([]string(nil), current...)
		seen := make(map[string]bool, len(current)+len(labels))
		for _, l := range current {
			seen[l] = true
		}
		for _, l := range labels {
			if !seen[l] {
				seen[l] = true
				merged = append(merged, l)
			}
		}
		return nil, merged, nil
	})
}

// Labels returns a copy of the current labels.
func (c EntityContext) Labels() ([]string, error) {
	c.r.mu.Lock()
	defer c.r.mu.Unlock()
	return c.currentLabels()
}

func (c EntityContext) currentLabels() ([]string, error) {
	if !c.r.store.IsInitialized() {
		return nil, ErrNotStarted
	}
	switch c.kind {
	case entity.KindUseCase:
		uc, _ := c.r.store.CurrentUseCase()
		if uc == nil {
			return nil, ErrNoCurrentUseCase
		}
		return uc.Labels, nil
	default:
		sc, _ := c.r.store.CurrentScenario()
		if sc == nil {
			return nil, ErrNoCurrentScenario
		}
		return sc.Labels, nil
	}
}

// update applies fn to the open entity. It is a no-op when documentation is
// disabled.
func (c EntityContext) update(fn func(current []string) (*string, []string, error)) error {
	if !c.r.Enabled() {
		return nil
	}
	c.r.mu.Lock()
	defer c.r.mu.Unlock()

	current, err := c.currentLabels()
	if err != nil {
		return err
	}
	description, labels, err := fn(current)
	if err != nil {
		return err
	}
	if c.kind == entity.KindUseCase {
		return c.r.store.UpdateCurrentUseCase(runstate.UseCasePatch{Description: description, Labels: labels})
	}
	return c.r.store.UpdateCurrentScenario(runstate.ScenarioPatch{Description: description, Labels: labels})
}
