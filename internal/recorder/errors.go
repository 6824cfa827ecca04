package recorder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/eykd/scenariodoc/internal/entity"
)

// Sequencing errors. They mean an adapter called the recorder out of order.
var (
	ErrAlreadyStarted     = errors.New("documentation run already started")
	ErrNotStarted         = errors.New("documentation run not started")
	ErrNoCurrentUseCase   = errors.New("no use case is open")
	ErrNoCurrentScenario  = errors.New("no scenario is open")
	ErrUseCaseInProgress  = errors.New("a use case is already open")
	ErrScenarioInProgress = errors.New("a scenario is still open")
	ErrEmptyName          = errors.New("name must not be empty")
	ErrInvalidRunOptions  = errors.New("invalid run options")
)

// MismatchedIDError reports an end event whose name does not match the open
// use case or scenario.
type MismatchedIDError struct {
	Kind entity.Kind
	Want string
	Got  string
}

func (e *MismatchedIDError) Error() string {
	return fmt.Sprintf("cannot end %s %q: %q is open", e.Kind, e.Got, e.Want)
}

// UnknownStatusError reports a scenario status outside success, failed and
// skipped.
type UnknownStatusError struct {
	Status entity.Status
}

func (e *UnknownStatusError) Error() string {
	known := make([]string, len(entity.KnownStatuses))
	for i, s := range entity.KnownStatuses {
		known[i] = string(s)
	}
	return fmt.Sprintf("unknown scenario status %q (want one of %s)", e.Status, strings.Join(known, ", "))
}
