package supervisor

import (
	"context"
	"fmt"

	"github.com/cuemby/towerctl/pkg/log"
	"github.com/rs/zerolog"
)

// UnitController drives a single OS service unit. Calls return once the
// action has been applied or has failed.
type UnitController interface {
	Start(ctx context.Context, unit string) error
	Stop(ctx context.Context, unit string) error
	Enable(ctx context.Context, unit string) error
	Disable(ctx context.Context, unit string) error
	IsRunning(ctx context.Context, unit string) (bool, error)
}

// Error is a failed supervisor action on one unit
type Error struct {
	Unit string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Unit, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Adapter applies supervisor actions across the whole ServiceSet, in order.
// The first failure stops the sequence and is returned; nothing is retried.
type Adapter struct {
	units  UnitController
	set    ServiceSet
	logger zerolog.Logger
}

// NewAdapter creates an adapter over set
func NewAdapter(units UnitController, set ServiceSet) *Adapter {
	return &Adapter{
		units:  units,
		set:    set,
		logger: log.WithComponent("supervisor"),
	}
}

// StartAndEnable starts then enables every unit
func (a *Adapter) StartAndEnable(ctx context.Context) error {
	return a.each(ctx, func(unit string) error {
		if err := a.units.Start(ctx, unit); err != nil {
			return &Error{Unit: unit, Op: "start", Err: err}
		}
		if err := a.units.Enable(ctx, unit); err != nil {
			return &Error{Unit: unit, Op: "enable", Err: err}
		}
		return nil
	})
}

// Stop stops every unit
func (a *Adapter) Stop(ctx context.Context) error {
	return a.each(ctx, func(unit string) error {
		if err := a.units.Stop(ctx, unit); err != nil {
			return &Error{Unit: unit, Op: "stop", Err: err}
		}
		return nil
	})
}

// StopAndDisable stops then disables every unit
func (a *Adapter) StopAndDisable(ctx context.Context) error {
	return a.each(ctx, func(unit string) error {
		if err := a.units.Stop(ctx, unit); err != nil {
			return &Error{Unit: unit, Op: "stop", Err: err}
		}
		if err := a.units.Disable(ctx, unit); err != nil {
			return &Error{Unit: unit, Op: "disable", Err: err}
		}
		return nil
	})
}

// Running reports whether every unit in the set is running. An empty set is
// never running.
func (a *Adapter) Running(ctx context.Context) (bool, error) {
	if len(a.set) == 0 {
		return false, nil
	}
	for _, unit := range a.set {
		running, err := a.units.IsRunning(ctx, unit)
		if err != nil {
			return false, &Error{Unit: unit, Op: "query", Err: err}
		}
		if !running {
			a.logger.Debug().Str("unit", unit).Msg("Unit not running")
			return false, nil
		}
	}
	return true, nil
}

func (a *Adapter) each(ctx context.Context, fn func(unit string) error) error {
	for _, unit := range a.set {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.logger.Debug().Str("unit", unit).Msg("Applying supervisor action")
		if err := fn(unit); err != nil {
			return err
		}
	}
	return nil
}
