// Package reporter adapts test framework output to recorder lifecycle calls.
package reporter

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/logging"
	"github.com/eykd/scenariodoc/internal/recorder"
)

// Reporter receives lifecycle notifications from a test framework adapter.
type Reporter interface {
	RunStarted(ctx context.Context, opts recorder.RunOptions) error
	UseCaseStarted(ctx context.Context, name string, opts recorder.UseCaseOptions) error
	ScenarioStarted(ctx context.Context, name string, opts recorder.ScenarioOptions) error
	StepReached(ctx context.Context, title string, props recorder.StepProperties) error
	ScenarioEnded(ctx context.Context, name string, status entity.Status) error
	UseCaseEnded(ctx context.Context, name string) error
	RunEnded(ctx context.Context) (entity.Build, error)
}

// Generic forwards every notification to a Recorder.
type Generic struct {
	rec *recorder.Recorder
	log *logrus.Entry
}

// NewGeneric returns a Reporter backed by rec. A nil log discards output.
func NewGeneric(rec *recorder.Recorder, log *logrus.Entry) *Generic {
	if log == nil {
		log = logging.Discard()
	}
	return &Generic{rec: rec, log: log}
}

// RunStarted starts the recorder run.
func (g *Generic) RunStarted(ctx context.Context, opts recorder.RunOptions) error {
	return g.rec.StartRun(ctx, opts)
}

// UseCaseStarted implements Reporter.
func (g *Generic) UseCaseStarted(ctx context.Context, name string, opts recorder.UseCaseOptions) error {
	return g.rec.StartUseCase(ctx, name, opts)
}

// ScenarioStarted implements Reporter.
func (g *Generic) ScenarioStarted(ctx context.Context, name string, opts recorder.ScenarioOptions) error {
	return g.rec.StartScenario(ctx, name, opts)
}

// StepReached records a step. It is a no-op while no run is active.
func (g *Generic) StepReached(ctx context.Context, title string, props recorder.StepProperties) error {
	res, err := g.rec.RecordStep(ctx, title, props)
	if err != nil {
		return err
	}
	if res != nil {
		g.log.WithField("path", res.Path).Trace("step reported")
	}
	return nil
}

// ScenarioEnded implements Reporter.
func (g *Generic) ScenarioEnded(ctx context.Context, name string, status entity.Status) error {
	return g.rec.EndScenario(ctx, recorder.ScenarioEnd{Name: name, Status: status})
}

// UseCaseEnded implements Reporter.
func (g *Generic) UseCaseEnded(ctx context.Context, name string) error {
	return g.rec.EndUseCase(ctx, recorder.UseCaseEnd{Name: name})
}

// RunEnded ends the run and logs the resulting build.
func (g *Generic) RunEnded(ctx context.Context) (entity.Build, error) {
	build, err := g.rec.EndRun(ctx)
	if err != nil {
		return build, err
	}
	g.log.WithFields(logrus.Fields{
		"status": build.Status,
		"passed": build.PassedUseCases,
		"failed": build.FailedUseCases,
	}).Info("build documented")
	return build, nil
}

// Adapter turns one framework's output into Reporter calls.
type Adapter interface {
	// Feed consumes one input. name identifies it in errors and, for the
	// gwt adapter, selects the decoder.
	Feed(ctx context.Context, name string, in io.Reader) error
	// Close finishes whatever the inputs left open and returns the build.
	Close(ctx context.Context) (entity.Build, error)
}

// Options configures an Adapter.
type Options struct {
	// Run is used to start the run. The events adapter lets a runStarted
	// event override its fields.
	Run recorder.RunOptions
	// DefaultStatus is the gwt scenario status when a spec sets none.
	DefaultStatus entity.Status
	// StepOnExpectationFailed records a failed step for each
	// expectationFailed event.
	StepOnExpectationFailed bool
	Logger                  *logrus.Entry
}

func (o Options) logger() *logrus.Entry {
	if o.Logger == nil {
		return logging.Discard()
	}
	return o.Logger
}

// Kind names a supported adapter.
type Kind string

// Supported adapters.
const (
	KindEvents Kind = "events"
	KindGoTest Kind = "gotest"
	KindGWT    Kind = "gwt"
)

// Factory builds an Adapter that reports to rep.
type Factory func(rep Reporter, opts Options) Adapter

var registry = map[Kind]Factory{
	KindEvents: func(rep Reporter, opts Options) Adapter { return newEvents(rep, opts) },
	KindGoTest: func(rep Reporter, opts Options) Adapter { return newGoTest(rep, opts) },
	KindGWT:    func(rep Reporter, opts Options) Adapter { return newGWT(rep, opts) },
}

// Kinds lists the registered adapters in name order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Lookup returns the factory registered for kind.
func Lookup(kind string) (Factory, error) {
	f, ok := registry[Kind(strings.ToLower(strings.TrimSpace(kind)))]
	if !ok {
		return nil, fmt.Errorf("unknown reporter %q (want one of %v)", kind, Kinds())
	}
	return f, nil
}
