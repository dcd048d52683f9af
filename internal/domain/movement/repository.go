package movement

import (
	"context"
)

// Log is the append-only movement store, the sole source of truth for all
// value transfers. Append must be atomic and durable before it returns;
// ReadAll returns every movement in append order, oldest first.
type Log interface {
	Append(ctx context.Context, m *Movement) error
	ReadAll(ctx context.Context) ([]Movement, error)
}

// ErrAppendFailed indicates the underlying store rejected or lost a movement
// write. The caller must not assume the movement was recorded.
type ErrAppendFailed struct {
	Cause error
}

func (e ErrAppendFailed) Error() string {
	return "movement append failed: " + e.Cause.Error()
}

func (e ErrAppendFailed) Unwrap() error {
	return e.Cause
}

// Is implements the errors.Is interface for ErrAppendFailed
func (e ErrAppendFailed) Is(target error) bool {
	_, ok := target.(ErrAppendFailed)
	return ok
}
