package runstate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eykd/scenariodoc/internal/entity"
	"github.com/eykd/scenariodoc/internal/runstate"
)

func newStore(t *testing.T) *runstate.Store {
	t.Helper()
	s := runstate.New()
	require.NoError(t, s.Init("master", "main line", "b1", "abc123"))
	return s
}

func TestInit_Defaults(t *testing.T) {
	s := newStore(t)
	assert.True(t, s.IsInitialized())

	branch, err := s.Branch()
	require.NoError(t, err)
	assert.Equal(t, "master", branch.Name)
	assert.Equal(t, "main line", branch.Description)

	build, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, "b1", build.Name)
	assert.Equal(t, "abc123", build.Revision)
	assert.Zero(t, build.PassedUseCases+build.FailedUseCases+build.SkippedUseCases)

	uc, err := s.CurrentUseCase()
	require.NoError(t, err)
	assert.Nil(t, uc)
	sc, err := s.CurrentScenario()
	require.NoError(t, err)
	assert.Nil(t, sc)
}

func TestInit_Twice(t *testing.T) {
	s := newStore(t)
	assert.ErrorIs(t, s.Init("x", "", "y", ""), runstate.ErrAlreadyInitialized)

	s.Clear()
	assert.NoError(t, s.Init("x", "", "y", ""))
}

func TestNotInitialized(t *testing.T) {
	s := runstate.New()
	assert.False(t, s.IsInitialized())

	_, err := s.Branch()
	assert.ErrorIs(t, err, runstate.ErrNotInitialized)
	_, err = s.Build()
	assert.ErrorIs(t, err, runstate.ErrNotInitialized)
	_, err = s.IncrementStepCounter()
	assert.ErrorIs(t, err, runstate.ErrNotInitialized)
	assert.ErrorIs(t, s.UpdateCurrentUseCase(runstate.UseCasePatch{}), runstate.ErrNotInitialized)
	assert.ErrorIs(t, s.ResetCurrentScenario(), runstate.ErrNotInitialized)
	_, err = s.Dump()
	assert.ErrorIs(t, err, runstate.ErrNotInitialized)
}

func TestClear_DropsState(t *testing.T) {
	s := newStore(t)
	s.Clear()
	assert.False(t, s.IsInitialized())
	_, err := s.CurrentUseCase()
	assert.ErrorIs(t, err, runstate.ErrNotInitialized)
}

func TestGetters_ReturnCopies(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.UpdateCurrentUseCase(runstate.UseCasePatch{
		Name:   runstate.Ptr("Login"),
		Labels: []string{"smoke"},
	}))

	uc, err := s.CurrentUseCase()
	require.NoError(t, err)
	uc.Name = "mutated"
	uc.Labels[0] = "mutated"

	again, err := s.CurrentUseCase()
	require.NoError(t, err)
	assert.Equal(t, "Login", again.Name)
	assert.Equal(t, []string{"smoke"}, again.Labels)

	build, err := s.Build()
	require.NoError(t, err)
	build.Name = "mutated"
	build, err = s.Build()
	require.NoError(t, err)
	assert.Equal(t, "b1", build.Name)
}

func TestUpdateBuild_ShallowMerge(t *testing.T) {
	s := newStore(t)
	date := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetBuildDate(date))
	require.NoError(t, s.UpdateBuild(runstate.BuildPatch{Revision: runstate.Ptr("def456")}))
	require.NoError(t, s.UpdateBuild(runstate.BuildPatch{Revision: runstate.Ptr("ghi789")}))

	build, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, date, build.Date)
	assert.Equal(t, "ghi789", build.Revision)
	assert.Equal(t, "b1", build.Name)
}

func TestUpdateCurrentUseCase_CreatesThenMerges(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.UpdateCurrentUseCase(runstate.UseCasePatch{Name: runstate.Ptr("Login")}))
	require.NoError(t, s.UpdateCurrentUseCase(runstate.UseCasePatch{Description: runstate.Ptr("Users sign in")}))

	uc, err := s.CurrentUseCase()
	require.NoError(t, err)
	require.NotNil(t, uc)
	assert.Equal(t, "Login", uc.Name)
	assert.Equal(t, "Users sign in", uc.Description)
	assert.Zero(t, uc.PassedScenarios)

	require.NoError(t, s.ResetCurrentUseCase())
	uc, err = s.CurrentUseCase()
	require.NoError(t, err)
	assert.Nil(t, uc)
}

func TestIncrementStepCounter_Sequence(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.UpdateCurrentScenario(runstate.ScenarioPatch{Name: runstate.Ptr("Happy path")}))

	for want := 0; want < 3; want++ {
		got, err := s.IncrementStepCounter()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestIncrementStepCounter_ImplicitScenario(t *testing.T) {
	s := newStore(t)
	got, err := s.IncrementStepCounter()
	require.NoError(t, err)
	assert.Equal(t, 0, got)

	sc, err := s.CurrentScenario()
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.Equal(t, 0, sc.StepCounter)
}

func TestStepCounter_ResetsOnlyWithNewScenario(t *testing.T) {
	s := newStore(t)
	_, _ = s.IncrementStepCounter()
	_, _ = s.IncrementStepCounter()
	require.NoError(t, s.UpdateCurrentScenario(runstate.ScenarioPatch{Status: runstate.Ptr(entity.StatusSuccess)}))

	sc, err := s.CurrentScenario()
	require.NoError(t, err)
	assert.Equal(t, 1, sc.StepCounter)

	require.NoError(t, s.ResetCurrentScenario())
	require.NoError(t, s.UpdateCurrentScenario(runstate.ScenarioPatch{Name: runstate.Ptr("next")}))
	sc, err = s.CurrentScenario()
	require.NoError(t, err)
	assert.Equal(t, -1, sc.StepCounter)
}

func TestCounters(t *testing.T) {
	s := newStore(t)
	assert.ErrorIs(t, s.IncrementUseCaseCounter(entity.StatusSuccess), runstate.ErrNoCurrentUseCase)

	require.NoError(t, s.UpdateCurrentUseCase(runstate.UseCasePatch{Name: runstate.Ptr("Login")}))
	require.NoError(t, s.IncrementUseCaseCounter(entity.StatusSuccess))
	require.NoError(t, s.IncrementUseCaseCounter(entity.StatusFailed))
	require.NoError(t, s.IncrementUseCaseCounter(entity.StatusSkipped))
	require.NoError(t, s.IncrementUseCaseCounter(entity.StatusSkipped))
	assert.Error(t, s.IncrementUseCaseCounter("bogus"))

	uc, err := s.CurrentUseCase()
	require.NoError(t, err)
	assert.Equal(t, [3]int{1, 1, 2}, [3]int{uc.PassedScenarios, uc.FailedScenarios, uc.SkippedScenarios})

	require.NoError(t, s.IncrementBuildCounter(entity.StatusFailed))
	assert.Error(t, s.IncrementBuildCounter(""))
	build, err := s.Build()
	require.NoError(t, err)
	assert.Equal(t, 1, build.FailedUseCases)
}

func TestDump_DeepCopy(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.UpdateCurrentUseCase(runstate.UseCasePatch{Name: runstate.Ptr("Login"), Labels: []string{"a"}}))
	require.NoError(t, s.UpdateCurrentScenario(runstate.ScenarioPatch{Name: runstate.Ptr("Happy"), Labels: []string{"b"}}))

	snap, err := s.Dump()
	require.NoError(t, err)
	snap.UseCase.Labels[0] = "changed"
	snap.Scenario.Name = "changed"

	again, err := s.Dump()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.UseCase.Labels)
	assert.Equal(t, "Happy", again.Scenario.Name)
	assert.Equal(t, "master", again.Branch.Name)
}

func TestIndependentStores(t *testing.T) {
	a := newStore(t)
	b := runstate.New()
	require.NoError(t, b.Init("release", "", "b9", ""))

	_, _ = a.IncrementStepCounter()
	n, err := b.IncrementStepCounter()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
