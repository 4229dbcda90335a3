package supervisor

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/cuemby/towerctl/pkg/log"
)

// jobMode is the systemd job mode used for start and stop requests
const jobMode = "replace"

// systemdConn is the subset of the dbus connection the controller uses
type systemdConn interface {
	StartUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	StopUnitContext(ctx context.Context, name string, mode string, ch chan<- string) (int, error)
	EnableUnitFilesContext(ctx context.Context, files []string, runtime bool, force bool) (bool, []dbus.EnableUnitFileChange, error)
	DisableUnitFilesContext(ctx context.Context, files []string, runtime bool) ([]dbus.DisableUnitFileChange, error)
	GetUnitPropertyContext(ctx context.Context, unit string, propertyName string) (*dbus.Property, error)
	ReloadContext(ctx context.Context) error
	Close()
}

// SystemdController controls units through the systemd D-Bus API. A new
// connection is opened per call, as the tool is short-lived.
type SystemdController struct {
	connect func(ctx context.Context) (systemdConn, error)
}

// NewSystemdController creates a controller talking to the system bus
func NewSystemdController() *SystemdController {
	return &SystemdController{
		connect: func(ctx context.Context) (systemdConn, error) {
			return dbus.NewWithContext(ctx)
		},
	}
}

func (s *SystemdController) conn(ctx context.Context) (systemdConn, error) {
	conn, err := s.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to systemd: %w", err)
	}
	return conn, nil
}

func (s *SystemdController) Start(ctx context.Context, unit string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch := make(chan string, 1)
	if _, err := conn.StartUnitContext(ctx, unit, jobMode, ch); err != nil {
		return fmt.Errorf("dbus start request failed: %w", err)
	}
	return waitJob(ctx, unit, "start", ch)
}

func (s *SystemdController) Stop(ctx context.Context, unit string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch := make(chan string, 1)
	if _, err := conn.StopUnitContext(ctx, unit, jobMode, ch); err != nil {
		return fmt.Errorf("dbus stop request failed: %w", err)
	}
	return waitJob(ctx, unit, "stop", ch)
}

func (s *SystemdController) Enable(ctx context.Context, unit string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, _, err := conn.EnableUnitFilesContext(ctx, []string{unit}, false, true); err != nil {
		return fmt.Errorf("dbus enable request failed: %w", err)
	}
	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("dbus post-enable daemon reload failed: %w", err)
	}
	return nil
}

func (s *SystemdController) Disable(ctx context.Context, unit string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.DisableUnitFilesContext(ctx, []string{unit}, false); err != nil {
		return fmt.Errorf("dbus disable request failed: %w", err)
	}
	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("dbus post-disable daemon reload failed: %w", err)
	}
	return nil
}

func (s *SystemdController) IsRunning(ctx context.Context, unit string) (bool, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	prop, err := conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return false, fmt.Errorf("failed to query %s state: %w", unit, err)
	}
	state, _ := prop.Value.Value().(string)
	return state == "active", nil
}

// waitJob blocks until systemd reports the job result
func waitJob(ctx context.Context, unit, op string, ch <-chan string) error {
	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("%s job finished with result %q", op, result)
		}
		logger := log.WithUnit(unit)
		logger.Debug().Str("op", op).Msg("Unit job done")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
