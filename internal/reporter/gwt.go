package reporter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/eykd/scenariodoc/acceptance"
	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/recorder"
	"github.com/eykd/scenariodoc/internal/sanitize"
)

// gwt documents acceptance spec files: one use case per file, one
// scenario per spec scenario and one step per GIVEN/WHEN/THEN line.
type gwt struct {
	rep     Reporter
	opts    Options
	started bool
}

func newGWT(rep Reporter, opts Options) *gwt {
	if opts.DefaultStatus == "" {
		opts.DefaultStatus = entity.StatusSkipped
	}
	return &gwt{rep: rep, opts: opts}
}

// Feed parses one spec and reports it. Names ending in .json are decoded as
// pre-parsed features.
func (g *gwt) Feed(ctx context.Context, name string, in io.Reader) error {
	feature, err := acceptance.LoadFeature(name, func(string) ([]byte, error) { return io.ReadAll(in) })
	if err != nil {
		return err
	}
	if !g.started {
		if err := g.rep.RunStarted(ctx, g.opts.Run); err != nil {
			return err
		}
		g.started = true
	}
	if err := g.reportFeature(ctx, feature); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (g *gwt) reportFeature(ctx context.Context, f *acceptance.Feature) error {
	if len(f.Scenarios) == 0 {
		g.opts.logger().WithField("file", f.SourceFile).Warn("spec has no scenarios")
	}
	useCase := f.Title
	if strings.TrimSpace(useCase) == "" {
		useCase = f.SourceFile
	}
	if err := g.rep.UseCaseStarted(ctx, useCase, recorder.UseCaseOptions{
		Description: f.SourceFile,
		Labels:      sanitize.SanitizeLabels(f.Labels),
	}); err != nil {
		return err
	}
	for i, sc := range f.Scenarios {
		name := sc.Description
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("scenario %d", i+1)
		}
		if err := g.rep.ScenarioStarted(ctx, name, recorder.ScenarioOptions{
			Description: fmt.Sprintf("%s:%d", f.SourceFile, sc.Line),
			Labels:      sanitize.SanitizeLabels(sc.Labels),
		}); err != nil {
			return err
		}
		for _, st := range sc.Steps {
			title := st.Keyword + " " + st.Text
			if err := g.rep.StepReached(ctx, strings.TrimSpace(title), recorder.StepProperties{
				Labels:   []string{strings.ToLower(st.Keyword)},
				PageName: useCase,
			}); err != nil {
				return err
			}
		}
		if err := g.rep.ScenarioEnded(ctx, name, f.ScenarioStatus(i, g.opts.DefaultStatus)); err != nil {
			return err
		}
	}
	return g.rep.UseCaseEnded(ctx, useCase)
}

// Close ends the run once every file has been fed.
func (g *gwt) Close(ctx context.Context) (entity.Build, error) {
	if !g.started {
		return entity.Build{}, ErrNoRun
	}
	return g.rep.RunEnded(ctx)
}
