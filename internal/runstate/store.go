// Package runstate holds the in-memory model of one documentation run: the
// branch and build metadata plus the currently open use case and scenario.
//
// A Store is owned by a single recorder and is not safe for concurrent use.
// Independent runs in one process use independent Stores.
package runstate

import (
	"errors"
	"fmt"
	"time"

	"github.com/eykd/scenariodoc/internal/entity"
)

var (
	// ErrAlreadyInitialized is returned by Init when a run is already held.
	ErrAlreadyInitialized = errors.New("run state already initialized")
	// ErrNotInitialized is returned by every accessor before Init or after Clear.
	ErrNotInitialized = errors.New("run state not initialized")
	// ErrNoCurrentUseCase is returned when an operation needs an open use case.
	ErrNoCurrentUseCase = errors.New("no current use case")
	// ErrNoCurrentScenario is returned when an operation needs an open scenario.
	ErrNoCurrentScenario = errors.New("no current scenario")
)

// initialStepCounter is the counter value of a freshly opened scenario.
const initialStepCounter = -1

type state struct {
	branch   entity.Branch
	build    entity.Build
	useCase  *entity.UseCase
	scenario *entity.Scenario
}

// Store is the authoritative model of the current run.
type Store struct {
	st *state
}

// New returns an uninitialized Store.
func New() *Store {
	return &Store{}
}

// Init establishes branch and build metadata with zeroed counters and no open
// use case or scenario.
func (s *Store) Init(branchName, branchDescription, buildName, revision string) error {
	if s.st != nil {
		return ErrAlreadyInitialized
	}
	s.st = &state{
		branch: entity.Branch{
			ID:          branchName,
			Name:        branchName,
			Description: branchDescription,
		},
		build: entity.Build{
			Name:     buildName,
			Revision: revision,
		},
	}
	return nil
}

// IsInitialized reports whether the Store holds a run.
func (s *Store) IsInitialized() bool {
	return s.st != nil
}

// Clear drops all state.
func (s *Store) Clear() {
	s.st = nil
}

func (s *Store) get() (*state, error) {
	if s.st == nil {
		return nil, ErrNotInitialized
	}
	return s.st, nil
}

// Branch returns a copy of the branch metadata.
func (s *Store) Branch() (entity.Branch, error) {
	st, err := s.get()
	if err != nil {
		return entity.Branch{}, err
	}
	return st.branch, nil
}

// Build returns a copy of the build metadata.
func (s *Store) Build() (entity.Build, error) {
	st, err := s.get()
	if err != nil {
		return entity.Build{}, err
	}
	return st.build, nil
}

// UpdateBuild merges every non-nil field of p into the build.
func (s *Store) UpdateBuild(p BuildPatch) error {
	st, err := s.get()
	if err != nil {
		return err
	}
	p.apply(&st.build)
	return nil
}

// SetBuildDate sets the build date.
func (s *Store) SetBuildDate(date time.Time) error {
	return s.UpdateBuild(BuildPatch{Date: &date})
}

// IncrementBuildCounter adds one to the build's use case counter matching status.
func (s *Store) IncrementBuildCounter(status entity.Status) error {
	st, err := s.get()
	if err != nil {
		return err
	}
	switch status {
	case entity.StatusSuccess:
		st.build.PassedUseCases++
	case entity.StatusFailed:
		st.build.FailedUseCases++
	case entity.StatusSkipped:
		st.build.SkippedUseCases++
	default:
		return fmt.Errorf("no build counter for status %q", status)
	}
	return nil
}

// CurrentUseCase returns a copy of the open use case, or nil when none is open.
func (s *Store) CurrentUseCase() (*entity.UseCase, error) {
	st, err := s.get()
	if err != nil {
		return nil, err
	}
	return copyUseCase(st.useCase), nil
}

// UpdateCurrentUseCase merges p into the open use case, opening a new one with
// zeroed counters when none is open.
func (s *Store) UpdateCurrentUseCase(p UseCasePatch) error {
	st, err := s.get()
	if err != nil {
		return err
	}
	if st.useCase == nil {
		st.useCase = &entity.UseCase{}
	}
	p.apply(st.useCase)
	return nil
}

// ResetCurrentUseCase closes the use case slot.
func (s *Store) ResetCurrentUseCase() error {
	st, err := s.get()
	if err != nil {
		return err
	}
	st.useCase = nil
	return nil
}

// IncrementUseCaseCounter adds one to the open use case's scenario counter
// matching status.
func (s *Store) IncrementUseCaseCounter(status entity.Status) error {
	st, err := s.get()
	if err != nil {
		return err
	}
	if st.useCase == nil {
		return ErrNoCurrentUseCase
	}
	switch status {
	case entity.StatusSuccess:
		st.useCase.PassedScenarios++
	case entity.StatusFailed:
		st.useCase.FailedScenarios++
	case entity.StatusSkipped:
		st.useCase.SkippedScenarios++
	default:
		return fmt.Errorf("no use case counter for status %q", status)
	}
	return nil
}

// CurrentScenario returns a copy of the open scenario, or nil when none is open.
func (s *Store) CurrentScenario() (*entity.Scenario, error) {
	st, err := s.get()
	if err != nil {
		return nil, err
	}
	return copyScenario(st.scenario), nil
}

// UpdateCurrentScenario merges p into the open scenario, opening a new one
// with its step counter at -1 when none is open.
func (s *Store) UpdateCurrentScenario(p ScenarioPatch) error {
	st, err := s.get()
	if err != nil {
		return err
	}
	st.openScenario()
	p.apply(st.scenario)
	return nil
}

// ResetCurrentScenario closes the scenario slot.
func (s *Store) ResetCurrentScenario() error {
	st, err := s.get()
	if err != nil {
		return err
	}
	st.scenario = nil
	return nil
}

// IncrementStepCounter advances the open scenario's step counter by one and
// returns the new value. When no scenario is open one is created first, so
// the first call on a fresh scenario returns 0.
func (s *Store) IncrementStepCounter() (int, error) {
	st, err := s.get()
	if err != nil {
		return 0, err
	}
	st.openScenario()
	st.scenario.StepCounter++
	return st.scenario.StepCounter, nil
}

func (st *state) openScenario() {
	if st.scenario == nil {
		st.scenario = &entity.Scenario{StepCounter: initialStepCounter}
	}
}

// Snapshot is a deep copy of a Store's state.
type Snapshot struct {
	Branch   entity.Branch
	Build    entity.Build
	UseCase  *entity.UseCase
	Scenario *entity.Scenario
}

// Dump returns a deep copy of the full state for diagnostics and tests.
func (s *Store) Dump() (Snapshot, error) {
	st, err := s.get()
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Branch:   st.branch,
		Build:    st.build,
		UseCase:  copyUseCase(st.useCase),
		Scenario: copyScenario(st.scenario),
	}, nil
}

func copyUseCase(u *entity.UseCase) *entity.UseCase {
	if u == nil {
		return nil
	}
	c := *u
	c.Labels = copyStrings(u.Labels)
	return &c
}

func copyScenario(sc *entity.Scenario) *entity.Scenario {
	if sc == nil {
		return nil
	}
	c := *sc
	c.Labels = copyStrings(sc.Labels)
	return &c
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
