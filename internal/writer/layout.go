package writer

import (
	"fmt"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/sanitize"
)

const (
	stepsDir       = "steps"
	screenshotsDir = "screenshots"
	screenshotExt  = "png"

	segmentCacheSize = 512
)

// Location names the entities a path is nested under. Fields deeper than
// the entity being addressed are ignored.
type Location struct {
	Branch   string
	Build    string
	UseCase  string
	Scenario string
}

// Layout computes where every entity of a documentation tree lives:
//
//	<root>/<branch>/branch.<ext>
//	<root>/<branch>/<build>/build.<ext>
//	<root>/<branch>/<build>/<useCase>/usecase.<ext>
//	<root>/<branch>/<build>/<useCase>/<scenario>/scenario.<ext>
//	<root>/<branch>/<build>/<useCase>/<scenario>/steps/<NNN>.<ext>
//	<root>/<branch>/<build>/<useCase>/<scenario>/screenshots/<NNN>.png
//
// Every name segment is sanitized and file-name encoded.
type Layout struct {
	root     string
	ext      string
	segments *lru.Cache[string, string]
}

// NewLayout returns a Layout rooted at root using ext for entity files.
func NewLayout(root, ext string) *Layout {
	cache, err := lru.New[string, string](segmentCacheSize)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Layout{root: root, ext: ext, segments: cache}
}

// Root returns the documentation root directory.
func (l *Layout) Root() string { return l.root }

// Ext returns the entity file extension.
func (l *Layout) Ext() string { return l.ext }

// Segment returns the encoded directory name for a free-text name.
func (l *Layout) Segment(name string) string {
	if seg, ok := l.segments.Get(name); ok {
		return seg
	}
	seg := sanitize.PathSegment(name)
	l.segments.Add(name, seg)
	return seg
}

// Dir returns the directory of the deepest entity named in loc, given which
// kind is being addressed.
func (l *Layout) Dir(kind entity.Kind, loc Location) (string, error) {
	depth := map[entity.Kind]int{
		entity.KindBranch:   1,
		entity.KindBuild:    2,
		entity.KindUseCase:  3,
		entity.KindScenario: 4,
		entity.KindStep:     4,
	}[kind]
	if depth == 0 {
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
	names := []struct {
		field, value string
	}{
		{"branch", loc.Branch},
		{"build", loc.Build},
		{"use case", loc.UseCase},
		{"scenario", loc.Scenario},
	}[:depth]
	parts := make([]string, 0, depth+1)
	parts = append(parts, l.root)
	for _, n := range names {
		if n.value == "" {
			return "", fmt.Errorf("cannot locate %s: %s name is empty", kind, n.field)
		}
		parts = append(parts, l.Segment(n.value))
	}
	return filepath.Join(parts...), nil
}

// EntityFile returns the file path for a branch, build, use case, or scenario.
func (l *Layout) EntityFile(kind entity.Kind, loc Location) (string, error) {
	if kind == entity.KindStep {
		return "", fmt.Errorf("step files are addressed by index; use StepFile")
	}
	dir, err := l.Dir(kind, loc)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, kind.FileBase()+"."+l.ext), nil
}

// StepFile returns the entity file path for step index within the scenario
// named in loc.
func (l *Layout) StepFile(loc Location, index int) (string, error) {
	dir, err := l.Dir(entity.KindStep, loc)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, stepsDir, sanitize.StepFileName(index)+"."+l.ext), nil
}

// ScreenshotFile returns the screenshot path for step index within the
// scenario named in loc.
func (l *Layout) ScreenshotFile(loc Location, index int) (string, error) {
	dir, err := l.Dir(entity.KindStep, loc)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, screenshotsDir, ScreenshotFileName(index)), nil
}

// ScreenshotFileName is the base name of a step's screenshot.
func ScreenshotFileName(index int) string {
	return sanitize.StepFileName(index) + "." + screenshotExt
}
