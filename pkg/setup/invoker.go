package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cuemby/towerctl/pkg/log"
	"github.com/rs/zerolog"
)

// DefaultExcludedPhases are installer phases the appliance image already
// satisfies. Re-running them would be destructive.
var DefaultExcludedPhases = []string{"packages", "migrations", "firewall"}

// ExtraVars are the installer execution parameters
type ExtraVars struct {
	MinimumVarSpace int
	HTTPPort        int
	HTTPSPort       int
	PackageName     string
}

// Pairs serializes the variables as key=value pairs in a fixed order
func (v ExtraVars) Pairs() []string {
	return []string{
		"minimum_var_space=" + strconv.Itoa(v.MinimumVarSpace),
		"http_port=" + strconv.Itoa(v.HTTPPort),
		"https_port=" + strconv.Itoa(v.HTTPSPort),
		"tower_package_name=" + v.PackageName,
	}
}

// Params select what a single installer run does
type Params struct {
	ExcludedPhases []string
}

// TransientInventory hands out the installer inventory for the duration of fn
type TransientInventory interface {
	WithTransient(fn func(path string) error) error
}

// Error is a failed installer run. Output holds everything the installer
// wrote to stdout and stderr.
type Error struct {
	ExitCode int
	Output   []byte
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("setup failed (exit code %d): %v", e.ExitCode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Invoker runs the external platform installer
type Invoker struct {
	runner        Runner
	inventory     TransientInventory
	installerPath string
	extraVars     ExtraVars
	markerPath    string
	logger        zerolog.Logger
}

// NewInvoker creates an installer invoker. markerPath is the setup-completed
// flag written after a successful run.
func NewInvoker(runner Runner, inventory TransientInventory, installerPath string, extraVars ExtraVars, markerPath string) *Invoker {
	return &Invoker{
		runner:        runner,
		inventory:     inventory,
		installerPath: installerPath,
		extraVars:     extraVars,
		markerPath:    markerPath,
		logger:        log.WithComponent("setup"),
	}
}

// Run invokes the installer once. A failed run returns *Error and leaves the
// marker untouched; there is no retry.
func (i *Invoker) Run(ctx context.Context, params Params) error {
	start := time.Now()

	err := i.inventory.WithTransient(func(inventoryPath string) error {
		cmd := i.command(inventoryPath, params)
		i.logger.Info().
			Str("installer", cmd.Path).
			Strs("excluded_phases", params.ExcludedPhases).
			Msg("Running platform setup")

		out, code, err := i.runner.Run(ctx, cmd)
		if err != nil {
			return &Error{ExitCode: code, Output: out, Err: err}
		}
		i.logger.Debug().Int("output_bytes", len(out)).Msg("Setup output captured")
		return nil
	})
	if err != nil {
		var setupErr *Error
		if !errors.As(err, &setupErr) {
			// The installer never got to run
			return &Error{ExitCode: -1, Err: err}
		}
		return err
	}

	if err := i.writeMarker(); err != nil {
		return err
	}

	i.logger.Info().Dur("duration", time.Since(start)).Msg("Platform setup completed")
	return nil
}

func (i *Invoker) command(inventoryPath string, params Params) Command {
	args := []string{
		"-i", inventoryPath,
		"-e", strings.Join(i.extraVars.Pairs(), " "),
	}
	if len(params.ExcludedPhases) > 0 {
		args = append(args, "--", "--skip-tags="+strings.Join(params.ExcludedPhases, ","))
	}
	return Command{
		Path: i.installerPath,
		Args: args,
		Dir:  filepath.Dir(i.installerPath),
	}
}

// MarkerExists reports whether the setup-completed marker is present
func (i *Invoker) MarkerExists() (bool, error) {
	_, err := os.Stat(i.markerPath)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check setup marker: %w", err)
}

// ClearMarker removes the setup-completed marker
func (i *Invoker) ClearMarker() error {
	if err := os.Remove(i.markerPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove setup marker: %w", err)
	}
	return nil
}

func (i *Invoker) writeMarker() error {
	if err := os.MkdirAll(filepath.Dir(i.markerPath), 0755); err != nil {
		return fmt.Errorf("failed to create marker directory: %w", err)
	}
	if err := os.WriteFile(i.markerPath, nil, 0644); err != nil {
		return fmt.Errorf("failed to write setup marker: %w", err)
	}
	return nil
}
