package exiftool

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// ExecTimeout bounds one exiftool attempt. A hung tool is reported as
// OutcomeTimeout and not retried, distinguishing it from transient lock
// contention.
const ExecTimeout = 30 * time.Second

// Outcome classifies the result of one exiftool attempt.
type Outcome int

const (
	OutcomeSuccess   Outcome = iota
	OutcomeTransient         // Retryable lock contention.
	OutcomePermanent         // Non-zero exit unrelated to locking.
	OutcomeTimeout           // Attempt exceeded ExecTimeout.
	OutcomeCancelled         // Caller cancelled the run; not a tool failure.
)

// String returns the outcome label used in logs and failure reasons.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTransient:
		return "transient failure"
	case OutcomePermanent:
		return "permanent failure"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Result holds the classified outcome of a single exiftool invocation.
type Result struct {
	Outcome Outcome
	Stderr  string
	Err     error
}

// Execute runs one exiftool attempt under ExecTimeout with captured stderr
// and classifies the result: exit zero is success; a cancelled parent
// context is an interruption, not a tool failure; an elapsed deadline is a
// timeout; a non-zero exit with a file-in-use stderr signature is transient;
// anything else is permanent.
func Execute(ctx context.Context, args []string) Result {
	runCtx, cancel := context.WithTimeout(ctx, ExecTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf
	hideWindow(cmd)

	err := cmd.Run()
	stderr := stderrBuf.String()

	switch {
	case err == nil:
		return Result{Outcome: OutcomeSuccess, Stderr: stderr}
	case errors.Is(ctx.Err(), context.Canceled):
		return Result{Outcome: OutcomeCancelled, Stderr: stderr, Err: err}
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		return Result{Outcome: OutcomeTimeout, Stderr: stderr, Err: err}
	case MatchFileInUse(stderr):
		return Result{Outcome: OutcomeTransient, Stderr: stderr, Err: err}
	default:
		return Result{Outcome: OutcomePermanent, Stderr: stderr, Err: err}
	}
}
