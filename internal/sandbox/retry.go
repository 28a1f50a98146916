package sandbox

import (
	"context"
	"log/slog"
	"time"
)

// PollResult is the outcome of a bounded poll.
type PollResult int

const (
	// PollOk means the probe succeeded within the attempt budget.
	PollOk PollResult = iota
	// PollTimedOut means the attempt budget was exhausted. This is not an
	// error: callers degrade gracefully.
	PollTimedOut
)

// Poll runs probe up to maxAttempts times, sleeping interval between
// attempts. Probe errors are treated as "not yet" and logged at debug:
// the probes here are passive describes where transient failure is
// expected (the tunnel is not up yet, the API hiccuped). Only context
// cancellation aborts with an error.
func Poll(
	ctx context.Context,
	interval time.Duration,
	maxAttempts int,
	probe func(ctx context.Context) (bool, error),
) (PollResult, error) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		ok, err := probe(ctx)
		if err != nil {
			slog.Debug("poll probe failed", "attempt", attempt, "error", err)
		} else if ok {
			return PollOk, nil
		}

		if attempt == maxAttempts {
			break
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return PollTimedOut, ctx.Err()
		case <-timer.C:
		}
	}
	return PollTimedOut, nil
}
