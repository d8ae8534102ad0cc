package state

import "context"

// Executor runs fn on the goroutine that owns a Store and returns once fn has
// run. It returns ctx.Err() without running fn if ctx ends first; fn must be
// skipped, not run late, when ctx is already done by the time its turn comes.
type Executor func(ctx context.Context, fn func()) error

// Inline runs fn on the calling goroutine. It suits tests and callers that
// already own the store.
func Inline(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fn()
	return nil
}
