package exiftool

import (
	"context"
	"time"
)

// MaxRetries is the number of additional attempts after a transient failure.
const MaxRetries = 3

// backoffSchedule holds the delay before each retry attempt.
var backoffSchedule = [MaxRetries]time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
}

// Runner drives exiftool with retry-on-contention semantics. Exec and Sleep
// are injectable so the schedule can be tested without subprocesses or
// wall-clock waits; production callers use [NewRunner].
//
// Every attempt, retries included, runs under the same timeout and full
// result classification as the first.
type Runner struct {
	Exec  func(ctx context.Context, args []string) Result
	Sleep func(d time.Duration)
}

// NewRunner returns a Runner backed by the real subprocess executor.
func NewRunner() *Runner {
	return &Runner{Exec: Execute, Sleep: time.Sleep}
}

// Run invokes exiftool and, on transient (file-in-use) failures, retries up
// to MaxRetries additional times with exponential backoff. Timeouts and
// permanent failures are never retried. Returns the final result and the
// total number of attempts made.
func (r *Runner) Run(ctx context.Context, args []string) (Result, int) {
	res := r.Exec(ctx, args)
	attempts := 1

	for retry := 0; res.Outcome == OutcomeTransient && retry < MaxRetries; retry++ {
		if ctx.Err() != nil {
			break
		}
		r.Sleep(backoffSchedule[retry])
		res = r.Exec(ctx, args)
		attempts++
	}
	return res, attempts
}
