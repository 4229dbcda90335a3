package health

import (
	"context"
	"fmt"
	"time"
)

// CheckType represents the type of health check
type CheckType string

const (
	CheckTypeHTTP CheckType = "http"
)

// Result represents the outcome of a health check
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker is the interface that all health checkers must implement.
// A failed check is a normal Result, never a panic or error.
type Checker interface {
	// Check performs the health check and returns the result
	Check(ctx context.Context) Result

	// Type returns the type of health check
	Type() CheckType
}

// Clock is the part of github.com/juju/clock.Clock the poller waits on
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

// TimeoutError is returned when every liveness attempt failed
type TimeoutError struct {
	Attempts int
	Last     Result
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("service not alive after %d attempts: %s", e.Attempts, e.Last.Message)
}

// Poller runs a Checker a bounded number of times
type Poller struct {
	Checker  Checker
	Attempts int
	Delay    time.Duration
	Clock    Clock

	// OnAttempt, if set, is called after every check
	OnAttempt func(attempt int, result Result)
}

// Poll checks until one check passes or Attempts checks have failed. Checks
// are separated by Delay; there is no wait after the last one. Exhaustion
// returns *TimeoutError and is final.
func (p *Poller) Poll(ctx context.Context) error {
	var last Result
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		last = p.Checker.Check(ctx)
		if p.OnAttempt != nil {
			p.OnAttempt(attempt, last)
		}
		if last.Healthy {
			return nil
		}
		if attempt == p.Attempts {
			break
		}

		select {
		case <-p.Clock.After(p.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return &TimeoutError{Attempts: p.Attempts, Last: last}
}
