package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/recorder"
)

// Event types of the NDJSON lifecycle protocol.
const (
	EventRunStarted      = "runStarted"
	EventUseCaseStarted  = "useCaseStarted"
	EventScenarioStarted = "scenarioStarted"
	EventStep            = "step"
	EventScenarioEnded   = "scenarioEnded"
	EventUseCaseEnded    = "useCaseEnded"
	EventRunEnded        = "runEnded"
	// EventExpectationFailed becomes a failed step when
	// Options.StepOnExpectationFailed is set and is ignored otherwise.
	EventExpectationFailed = "expectationFailed"
)

// maxLineSize bounds a single event line. Steps may carry page source.
const maxLineSize = 8 * 1024 * 1024

// ErrNoRun is returned by Close when no input started a run.
var ErrNoRun = errors.New("no run was started")

// Event is one line of the lifecycle protocol. Only the fields relevant to
// Event.Event are read.
type Event struct {
	Event string `json:"event"`

	TargetDir         string `json:"targetDir,omitempty"`
	Branch            string `json:"branch,omitempty"`
	BranchDescription string `json:"branchDescription,omitempty"`
	Build             string `json:"build,omitempty"`
	Revision          string `json:"revision,omitempty"`

	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	Labels      []string `json:"labels,omitempty"`

	Title       string                    `json:"title,omitempty"`
	Status      entity.Status             `json:"status,omitempty"`
	PageName    string                    `json:"pageName,omitempty"`
	Annotations []entity.ScreenAnnotation `json:"annotations,omitempty"`
}

type events struct {
	rep     Reporter
	opts    Options
	started bool
	ended   bool
	build   entity.Build
}

func newEvents(rep Reporter, opts Options) *events {
	return &events{rep: rep, opts: opts}
}

// Feed applies every event line in order and stops at the first failure.
func (e *events) Feed(ctx context.Context, name string, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("%s:%d: malformed event: %w", name, line, err)
		}
		if err := e.apply(ctx, ev); err != nil {
			return fmt.Errorf("%s:%d: %s: %w", name, line, ev.Event, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", name, err)
	}
	return nil
}

func (e *events) apply(ctx context.Context, ev Event) error {
	switch ev.Event {
	case EventRunStarted:
		if err := e.rep.RunStarted(ctx, e.runOptions(ev)); err != nil {
			return err
		}
		e.started, e.ended = true, false
		return nil
	case EventUseCaseStarted:
		return e.rep.UseCaseStarted(ctx, ev.Name, recorder.UseCaseOptions{Description: ev.Description, Labels: ev.Labels})
	case EventScenarioStarted:
		return e.rep.ScenarioStarted(ctx, ev.Name, recorder.ScenarioOptions{Description: ev.Description, Labels: ev.Labels})
	case EventStep:
		return e.rep.StepReached(ctx, ev.Title, recorder.StepProperties{
			Labels:      ev.Labels,
			Status:      ev.Status,
			Annotations: ev.Annotations,
			PageName:    ev.PageName,
		})
	case EventExpectationFailed:
		if !e.opts.StepOnExpectationFailed {
			e.opts.logger().WithField("title", ev.Title).Debug("expectation failed")
			return nil
		}
		return e.rep.StepReached(ctx, "expectation failed: "+ev.Title, recorder.StepProperties{
			Labels:      ev.Labels,
			Status:      entity.StatusFailed,
			Annotations: ev.Annotations,
			PageName:    ev.PageName,
		})
	case EventScenarioEnded:
		return e.rep.ScenarioEnded(ctx, ev.Name, ev.Status)
	case EventUseCaseEnded:
		return e.rep.UseCaseEnded(ctx, ev.Name)
	case EventRunEnded:
		build, err := e.rep.RunEnded(ctx)
		if err != nil {
			return err
		}
		e.build, e.ended = build, true
		return nil
	default:
		return fmt.Errorf("unknown event %q", ev.Event)
	}
}

func (e *events) runOptions(ev Event) recorder.RunOptions {
	opts := e.opts.Run
	if ev.TargetDir != "" {
		opts.TargetDir = ev.TargetDir
	}
	if ev.Branch != "" {
		opts.BranchName = ev.Branch
	}
	if ev.BranchDescription != "" {
		opts.BranchDescription = ev.BranchDescription
	}
	if ev.Build != "" {
		opts.BuildName = ev.Build
	}
	if ev.Revision != "" {
		opts.Revision = ev.Revision
	}
	return opts
}

// Close ends a run the stream left open.
func (e *events) Close(ctx context.Context) (entity.Build, error) {
	if !e.started {
		return entity.Build{}, ErrNoRun
	}
	if e.ended {
		return e.build, nil
	}
	e.opts.logger().Warn("event stream ended without runEnded; closing the run")
	build, err := e.rep.RunEnded(ctx)
	if err != nil {
		return build, err
	}
	e.build, e.ended = build, true
	return build, nil
}
