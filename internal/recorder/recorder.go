// Package recorder turns test lifecycle events into a documentation tree.
//
// A Recorder moves through Idle, RunActive, UseCaseActive and ScenarioActive.
// Adapters call StartRun, StartUseCase, StartScenario, RecordStep, and the
// matching End calls in that order. Calls made out of order return one of
// the sequencing errors in errors.go and write nothing.
package recorder

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/eykd/scenariodoc/internal/capture"
	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/logging"
	"github.com/eykd/scenariodoc/internal/pagename"
	"github.com/eykd/scenariodoc/internal/runstate"
	"github.com/eykd/scenariodoc/internal/sanitize"
	"github.com/eykd/scenariodoc/internal/writer"
)

// Options configures a Recorder.
type Options struct {
	// Capturer supplies page state for each step. Defaults to capture.Blank.
	Capturer capture.Capturer
	// Writer persists entities. When nil one is built from Format and Schema.
	Writer *writer.Writer
	// Format selects the codec ("xml" or "json") when Writer is nil.
	Format string
	// Schema selects the validation rules when Writer is nil.
	Schema entity.Schema
	// PageNameExtractor overrides pagename.Default.
	PageNameExtractor pagename.Extractor
	Logger            *logrus.Entry
	// Disabled turns every operation into a no-op.
	Disabled bool
	// CapturePageSource stores the page markup with each step when the
	// Capturer implements capture.PageSourceCapturer.
	CapturePageSource bool
	// RecordLastStepForStatus records a closing step when a scenario ends
	// with one of the listed statuses.
	RecordLastStepForStatus map[entity.Status]bool
	// Clock stamps the build date. Defaults to time.Now.
	Clock func() time.Time
}

// RunOptions describes the run being documented.
type RunOptions struct {
	TargetDir         string
	BranchName        string
	BranchDescription string
	BuildName         string
	Revision          string
}

func (o RunOptions) validate() error {
	var missing []string
	if strings.TrimSpace(o.TargetDir) == "" {
		missing = append(missing, "target directory is required")
	}
	if strings.TrimSpace(o.BranchName) == "" {
		missing = append(missing, "branch name is required")
	}
	if strings.TrimSpace(o.BuildName) == "" {
		missing = append(missing, "build name is required")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRunOptions, strings.Join(missing, "; "))
	}
	return nil
}

// Recorder orchestrates one documentation run at a time. Its methods are
// safe for concurrent use, but lifecycle events must still arrive in order.
type Recorder struct {
	mu sync.Mutex

	opts     Options
	capturer capture.Capturer
	w        *writer.Writer
	pageName pagename.Extractor
	clock    func() time.Time
	baseLog  *logrus.Entry

	store    *runstate.Store
	layout   *writer.Layout
	log      *logrus.Entry
	inflight *errgroup.Group
}

// New returns an idle Recorder.
func New(opts Options) (*Recorder, error) {
	r := &Recorder{
		opts:     opts,
		capturer: opts.Capturer,
		w:        opts.Writer,
		pageName: pagename.Resolve(opts.PageNameExtractor),
		clock:    opts.Clock,
		baseLog:  opts.Logger,
		store:    runstate.New(),
	}
	if r.capturer == nil {
		r.capturer = capture.Blank{}
	}
	if r.w == nil {
		codec, err := writer.CodecFor(opts.Format)
		if err != nil {
			return nil, err
		}
		r.w = writer.New(codec, entity.Validator{Schema: opts.Schema})
	}
	if r.clock == nil {
		r.clock = time.Now
	}
	if r.baseLog == nil {
		r.baseLog = logging.Discard()
	}
	r.log = r.baseLog
	return r, nil
}

// Enabled reports whether documentation is switched on at all.
func (r *Recorder) Enabled() bool {
	return !r.opts.Disabled
}

// Active reports whether a run has been started and not yet ended.
func (r *Recorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.IsInitialized()
}

// Snapshot returns a deep copy of the run state.
func (r *Recorder) Snapshot() (runstate.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.store.IsInitialized() {
		return runstate.Snapshot{}, ErrNotStarted
	}
	return r.store.Dump()
}

// StartRun opens a run and writes the branch file immediately.
func (r *Recorder) StartRun(ctx context.Context, opts RunOptions) error {
	if !r.Enabled() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.store.IsInitialized() {
		return ErrAlreadyStarted
	}
	if err := opts.validate(); err != nil {
		return err
	}
	if err := r.store.Init(opts.BranchName, opts.BranchDescription, opts.BuildName, opts.Revision); err != nil {
		return err
	}
	if err := r.store.SetBuildDate(r.clock()); err != nil {
		return err
	}
	r.layout = writer.NewLayout(opts.TargetDir, r.w.Codec().Ext())
	r.log = r.baseLog.WithFields(logrus.Fields{
		"run_id": newRunID(),
		"branch": opts.BranchName,
		"build":  opts.BuildName,
	})

	branch, _ := r.store.Branch()
	if _, err := r.writeEntity(ctx, entity.KindBranch, branch, r.location()); err != nil {
		r.store.Clear()
		return fmt.Errorf("starting run: %w", err)
	}
	r.log.Debug("run started")
	return nil
}

// EndRun waits for outstanding steps, derives the build status, writes the
// build file and returns the recorder to idle.
func (r *Recorder) EndRun(ctx context.Context) (entity.Build, error) {
	if !r.Enabled() {
		return entity.Build{}, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.store.IsInitialized() {
		return entity.Build{}, ErrNotStarted
	}
	stepErr := r.waitSteps()
	if uc, _ := r.store.CurrentUseCase(); uc != nil {
		r.log.WithField("use_case", uc.Name).Warn("run ended with a use case still open")
	}

	build, _ := r.store.Build()
	build.Status = entity.StatusSuccess
	if build.FailedUseCases > 0 {
		build.Status = entity.StatusFailed
	}
	if _, err := r.writeEntity(ctx, entity.KindBuild, build, r.location()); err != nil {
		return entity.Build{}, fmt.Errorf("ending run: %w", err)
	}
	r.store.Clear()
	r.log.WithField("status", build.Status).Debug("run ended")
	r.log = r.baseLog
	return build, stepErr
}

// UseCaseOptions carries optional use case metadata.
type UseCaseOptions struct {
	Description string
	Labels      []string
}

// StartUseCase opens a use case under the active run.
func (r *Recorder) StartUseCase(_ context.Context, name string, opts UseCaseOptions) error {
	if !r.Enabled() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.store.IsInitialized() {
		return ErrNotStarted
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("starting use case: %w", ErrEmptyName)
	}
	if uc, _ := r.store.CurrentUseCase(); uc != nil {
		return fmt.Errorf("starting use case %q: %w (%q)", name, ErrUseCaseInProgress, uc.Name)
	}
	if err := sanitize.ValidateLabels(opts.Labels); err != nil {
		return err
	}
	if err := r.store.UpdateCurrentUseCase(runstate.UseCasePatch{
		ID:          runstate.Ptr(sanitize.SanitizeForID(name)),
		Name:        runstate.Ptr(name),
		Description: runstate.Ptr(opts.Description),
		Labels:      opts.Labels,
	}); err != nil {
		return err
	}
	r.log.WithField("use_case", name).Debug("use case started")
	return nil
}

// UseCaseEnd carries the optional name of the use case being ended. A
// non-empty Name must match the open use case.
type UseCaseEnd struct {
	Name string
}

// EndUseCase derives the use case status from its scenario counters, writes
// the use case file and closes it.
func (r *Recorder) EndUseCase(ctx context.Context, end UseCaseEnd) error {
	if !r.Enabled() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.store.IsInitialized() {
		return ErrNotStarted
	}
	uc, _ := r.store.CurrentUseCase()
	if uc == nil {
		return ErrNoCurrentUseCase
	}
	if end.Name != "" && end.Name != uc.Name {
		return &MismatchedIDError{Kind: entity.KindUseCase, Want: uc.Name, Got: end.Name}
	}
	if sc, _ := r.store.CurrentScenario(); sc != nil {
		return fmt.Errorf("ending use case %q: %w (%q)", uc.Name, ErrScenarioInProgress, sc.Name)
	}

	log := r.log.WithField("use_case", uc.Name)
	status := DeriveUseCaseStatus(uc.PassedScenarios, uc.FailedScenarios, uc.SkippedScenarios)
	if status == "" {
		status = r.emptyUseCaseStatus()
		log.WithField("status", status).Warn("use case has no scenarios")
	}
	uc.Status = status

	if _, err := r.writeEntity(ctx, entity.KindUseCase, *uc, r.location()); err != nil {
		return fmt.Errorf("ending use case %q: %w", uc.Name, err)
	}
	if err := r.store.IncrementBuildCounter(status); err != nil {
		return err
	}
	if err := r.store.ResetCurrentUseCase(); err != nil {
		return err
	}
	log.WithField("status", status).Debug("use case ended")
	return nil
}

// ScenarioOptions carries optional scenario metadata.
type ScenarioOptions struct {
	Description string
	Labels      []string
}

// StartScenario opens a scenario under the open use case.
func (r *Recorder) StartScenario(_ context.Context, name string, opts ScenarioOptions) error {
	if !r.Enabled() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.store.IsInitialized() {
		return ErrNotStarted
	}
	if uc, _ := r.store.CurrentUseCase(); uc == nil {
		return ErrNoCurrentUseCase
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("starting scenario: %w", ErrEmptyName)
	}
	if sc, _ := r.store.CurrentScenario(); sc != nil {
		return fmt.Errorf("starting scenario %q: %w (%q)", name, ErrScenarioInProgress, sc.Name)
	}
	if err := sanitize.ValidateLabels(opts.Labels); err != nil {
		return err
	}
	if err := r.store.UpdateCurrentScenario(runstate.ScenarioPatch{
		ID:          runstate.Ptr(sanitize.SanitizeForID(name)),
		Name:        runstate.Ptr(name),
		Description: runstate.Ptr(opts.Description),
		Labels:      opts.Labels,
	}); err != nil {
		return err
	}
	r.inflight = new(errgroup.Group)
	r.log.WithField("scenario", name).Debug("scenario started")
	return nil
}

// ScenarioEnd describes how a scenario finished. Status is required. A
// non-empty Name must match the open scenario.
type ScenarioEnd struct {
	Name   string
	Status entity.Status
}

// EndScenario waits for the scenario's asynchronous steps, optionally
// records a closing step, writes the scenario file and closes it. An error
// from an asynchronous step is returned after the scenario is written.
func (r *Recorder) EndScenario(ctx context.Context, end ScenarioEnd) error {
	if !r.Enabled() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.store.IsInitialized() {
		return ErrNotStarted
	}
	sc, _ := r.store.CurrentScenario()
	if sc == nil {
		return ErrNoCurrentScenario
	}
	if !end.Status.IsKnown() {
		return &UnknownStatusError{Status: end.Status}
	}
	if end.Name != "" && end.Name != sc.Name {
		return &MismatchedIDError{Kind: entity.KindScenario, Want: sc.Name, Got: end.Name}
	}

	stepErr := r.waitSteps()
	if r.opts.RecordLastStepForStatus[end.Status] {
		title := fmt.Sprintf("scenario %s", end.Status)
		if _, err := r.recordStepLocked(ctx, title, StepProperties{Status: end.Status}); err != nil {
			return fmt.Errorf("recording last step: %w", err)
		}
		sc, _ = r.store.CurrentScenario()
	}

	sc.Status = end.Status
	if _, err := r.writeEntity(ctx, entity.KindScenario, *sc, r.location()); err != nil {
		return fmt.Errorf("ending scenario %q: %w", sc.Name, err)
	}
	if err := r.store.IncrementUseCaseCounter(end.Status); err != nil {
		return err
	}
	if err := r.store.ResetCurrentScenario(); err != nil {
		return err
	}
	r.inflight = nil
	r.log.WithFields(logrus.Fields{"scenario": sc.Name, "status": end.Status}).Debug("scenario ended")
	if stepErr != nil {
		return fmt.Errorf("scenario %q: %w", sc.Name, stepErr)
	}
	return nil
}

// DeriveUseCaseStatus picks failed over success over skipped. It returns ""
// when every counter is zero.
func DeriveUseCaseStatus(passed, failed, skipped int) entity.Status {
	switch {
	case failed > 0:
		return entity.StatusFailed
	case passed > 0:
		return entity.StatusSuccess
	case skipped > 0:
		return entity.StatusSkipped
	default:
		return ""
	}
}

// emptyUseCaseStatus is persisted for a use case that ended without
// scenarios. The legacy schema has no skipped status.
func (r *Recorder) emptyUseCaseStatus() entity.Status {
	if r.w.Schema() == entity.SchemaLegacy {
		return entity.StatusSuccess
	}
	return entity.StatusSkipped
}

func (r *Recorder) waitSteps() error {
	if r.inflight == nil {
		return nil
	}
	return r.inflight.Wait()
}

// location names the currently open entities. Callers hold r.mu.
func (r *Recorder) location() writer.Location {
	var loc writer.Location
	if b, err := r.store.Branch(); err == nil {
		loc.Branch = b.Name
	}
	if b, err := r.store.Build(); err == nil {
		loc.Build = b.Name
	}
	if uc, _ := r.store.CurrentUseCase(); uc != nil {
		loc.UseCase = uc.Name
	}
	if sc, _ := r.store.CurrentScenario(); sc != nil {
		loc.Scenario = sc.Name
	}
	return loc
}

func (r *Recorder) writeEntity(ctx context.Context, kind entity.Kind, v any, loc writer.Location) (string, error) {
	path, err := r.layout.EntityFile(kind, loc)
	if err != nil {
		return "", err
	}
	return r.w.WriteEntity(ctx, kind, v, path)
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
