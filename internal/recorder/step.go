package recorder

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eykd/scenariodoc/internal/capture"
	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/sanitize"
	"github.com/eykd/scenariodoc/internal/writer"
)

// StepProperties are the caller-supplied parts of a step.
type StepProperties struct {
	Labels      []string
	Status      entity.Status
	Annotations []entity.ScreenAnnotation
	// PageName overrides the name derived from the page locator.
	PageName string
}

// StepResult is a recorded step and where it was written.
type StepResult struct {
	Step           entity.Step
	Path           string
	ScreenshotPath string
}

// StepOutcome is delivered by RecordStepAsync.
type StepOutcome struct {
	Result *StepResult
	Err    error
}

// pendingStep is a step whose index and paths are fixed but whose capture and
// write have not happened yet.
type pendingStep struct {
	step           entity.Step
	path           string
	screenshotPath string
	log            *logrus.Entry
}

// RecordStep captures the current page and writes a step under the open
// scenario. It does nothing and returns (nil, nil) when documentation is
// disabled or no run is active, so step calls can stay in test code.
func (r *Recorder) RecordStep(ctx context.Context, title string, props StepProperties) (*StepResult, error) {
	if !r.Enabled() {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.store.IsInitialized() {
		return nil, nil
	}
	return r.recordStepLocked(ctx, title, props)
}

// RecordStepAsync reserves the next step index immediately and performs the
// capture and write in the background. The channel receives exactly one
// outcome and is then closed. EndScenario waits for every pending step.
func (r *Recorder) RecordStepAsync(ctx context.Context, title string, props StepProperties) <-chan StepOutcome {
	out := make(chan StepOutcome, 1)
	if !r.Enabled() {
		out <- StepOutcome{}
		close(out)
		return out
	}

	r.mu.Lock()
	if !r.store.IsInitialized() {
		r.mu.Unlock()
		out <- StepOutcome{}
		close(out)
		return out
	}
	p, err := r.reserveStep(title, props)
	if err != nil {
		r.mu.Unlock()
		out <- StepOutcome{Err: err}
		close(out)
		return out
	}
	// Registered under r.mu so EndScenario cannot start waiting first.
	r.inflight.Go(func() error {
		defer close(out)
		res, err := r.completeStep(ctx, p)
		out <- StepOutcome{Result: res, Err: err}
		return err
	})
	r.mu.Unlock()
	return out
}

func (r *Recorder) recordStepLocked(ctx context.Context, title string, props StepProperties) (*StepResult, error) {
	p, err := r.reserveStep(title, props)
	if err != nil {
		return nil, err
	}
	return r.completeStep(ctx, p)
}

// reserveStep validates props, takes the next index and computes paths.
// Callers hold r.mu.
func (r *Recorder) reserveStep(title string, props StepProperties) (pendingStep, error) {
	if sc, _ := r.store.CurrentScenario(); sc == nil {
		return pendingStep{}, ErrNoCurrentScenario
	}
	if err := sanitize.ValidateLabels(props.Labels); err != nil {
		return pendingStep{}, err
	}
	index, err := r.store.IncrementStepCounter()
	if err != nil {
		return pendingStep{}, err
	}
	loc := r.location()
	path, err := r.layout.StepFile(loc, index)
	if err != nil {
		return pendingStep{}, err
	}
	shotPath, err := r.layout.ScreenshotFile(loc, index)
	if err != nil {
		return pendingStep{}, err
	}

	step := entity.Step{
		Index:              index,
		Title:              title,
		Status:             props.Status,
		Labels:             append([]string(nil), props.Labels...),
		ScreenshotFileName: writer.ScreenshotFileName(index),
		ScreenAnnotations:  append([]entity.ScreenAnnotation(nil), props.Annotations...),
	}
	if len(step.Labels) == 0 {
		step.Labels = nil
	}
	if len(step.ScreenAnnotations) == 0 {
		step.ScreenAnnotations = nil
	}
	if props.PageName != "" {
		step.Page = &entity.Page{Name: props.PageName}
	}
	return pendingStep{
		step:           step,
		path:           path,
		screenshotPath: shotPath,
		log: r.log.WithFields(logrus.Fields{
			"use_case": loc.UseCase,
			"scenario": loc.Scenario,
			"step":     index,
		}),
	}, nil
}

type captured struct {
	locator    string
	screenshot []byte
	source     string
}

// completeStep captures page state and writes the screenshot and step file.
// It does not touch run state, so it may run without r.mu.
func (r *Recorder) completeStep(ctx context.Context, p pendingStep) (*StepResult, error) {
	c, err := r.capture(ctx, p.log)
	if err != nil {
		return nil, fmt.Errorf("capturing step %d: %w", p.step.Index, err)
	}

	step := p.step
	step.URL = c.locator
	step.PageSource = c.source
	if step.Page == nil {
		step.Page = &entity.Page{Name: r.pageName(c.locator)}
	}

	if err := r.w.Validate(step); err != nil {
		return nil, fmt.Errorf("step %d: %w", step.Index, err)
	}
	if _, err := r.w.WriteScreenshot(ctx, p.screenshotPath, c.screenshot); err != nil {
		return nil, fmt.Errorf("writing step %d screenshot: %w", step.Index, err)
	}
	if _, err := r.w.WriteEntity(ctx, entity.KindStep, step, p.path); err != nil {
		return nil, fmt.Errorf("writing step %d: %w", step.Index, err)
	}
	p.log.WithField("page", step.Page.Name).Debug("step recorded")
	return &StepResult{Step: step, Path: p.path, ScreenshotPath: p.screenshotPath}, nil
}

// capture asks the collaborator for locator, screenshot and (optionally)
// page source concurrently.
func (r *Recorder) capture(ctx context.Context, log *logrus.Entry) (captured, error) {
	var c captured
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loc, err := r.capturer.CurrentPageLocator(gctx)
		if err != nil {
			return fmt.Errorf("page locator: %w", err)
		}
		c.locator = loc
		return nil
	})
	g.Go(func() error {
		shot, err := r.capturer.Screenshot(gctx)
		if err != nil {
			return fmt.Errorf("screenshot: %w", err)
		}
		c.screenshot = shot
		return nil
	})
	if r.opts.CapturePageSource {
		if src, ok := r.capturer.(capture.PageSourceCapturer); ok {
			g.Go(func() error {
				html, err := src.PageSource(gctx)
				if err != nil {
					log.WithError(err).Warn("page source unavailable")
					return nil
				}
				c.source = html
				return nil
			})
		} else {
			log.Warn("capturer cannot provide page source")
		}
	}
	if err := g.Wait(); err != nil {
		return captured{}, err
	}
	return c, nil
}
