package poller

import (
	"fmt"
	"time"

	"github.com/tshea68/reliable-pull/pkg/core"
)

// CreateFailedError is returned when the generation trigger itself fails.
// It is fatal; the poll loop never starts.
type CreateFailedError struct {
	Err error
}

func (e *CreateFailedError) Error() string {
	return fmt.Sprintf("create request failed: %v", e.Err)
}

func (e *CreateFailedError) Unwrap() error { return e.Err }

// TimeoutError is returned when the deadline is exhausted before the file
// becomes ready. It carries the last poll payload for diagnosis.
type TimeoutError struct {
	Attempts int
	Elapsed  time.Duration
	Last     core.Outcome
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("file not ready after %d attempt(s) in %s: deadline exceeded", e.Attempts, e.Elapsed.Round(time.Second))
}

// NotReadyError is returned on the no-create path, where the run assumes the
// file was generated earlier and does not retry.
type NotReadyError struct {
	Attempts int
	Last     core.Outcome
}

func (e *NotReadyError) Error() string {
	return "file not ready and no generation was requested this run"
}
