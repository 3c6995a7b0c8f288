package engine

import (
	"errors"

	"github.com/m-mizutani/goerr/v2"
)

// ErrAborted reports that the operator pressed the abort key, or the run
// context was cancelled, during a wait. It propagates up through the task and
// the battery runner; callers test for it with errors.Is.
var ErrAborted = errors.New("session aborted by operator")

// ErrSurfaceMismatch is returned when the background surface does not match
// the display size.
var ErrSurfaceMismatch = errors.New("background surface does not match display size")

func aborted(screenName, cause string) error {
	return goerr.Wrap(ErrAborted, "wait interrupted",
		goerr.V("screen", screenName),
		goerr.V("cause", cause))
}
