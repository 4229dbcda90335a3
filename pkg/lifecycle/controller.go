package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/towerctl/pkg/config"
	"github.com/cuemby/towerctl/pkg/health"
	"github.com/cuemby/towerctl/pkg/log"
	"github.com/cuemby/towerctl/pkg/metrics"
	"github.com/cuemby/towerctl/pkg/packages"
	"github.com/cuemby/towerctl/pkg/setup"
	"github.com/cuemby/towerctl/pkg/supervisor"
	"github.com/cuemby/towerctl/pkg/types"
	"github.com/rs/zerolog"
)

// ErrUnavailable means this host cannot run the platform at all
var ErrUnavailable = errors.New("platform is not available on this host")

// Credentials is the secret-key side of the credential store
type Credentials interface {
	ReadSecretKeyFile() (key string, exists bool, err error)
	SecretKey() (string, error)
	ReconcileSecretKey() (string, error)
	ClearSecretKey() error
}

// Installer runs platform setup and owns the setup-completed marker
type Installer interface {
	Run(ctx context.Context, params setup.Params) error
	MarkerExists() (bool, error)
	ClearMarker() error
}

// Services controls the platform's ServiceSet
type Services interface {
	StartAndEnable(ctx context.Context) error
	Stop(ctx context.Context) error
	StopAndDisable(ctx context.Context) error
	Running(ctx context.Context) (bool, error)
}

// Liveness confirms the platform serves traffic
type Liveness interface {
	Poll(ctx context.Context) error
}

// Config holds the controller's fixed paths and policies
type Config struct {
	PackageName       string
	RequiredPackages  []string
	VersionMarkerFile string
	SettingsFile      string
	ExcludedPhases    []string
	Proxy             config.ProxySettings
}

// Controller decides on every run whether the platform needs a fresh
// setup, an upgrade setup or just a service start, and drives it to a
// running state. It keeps no state between calls.
type Controller struct {
	cfg       Config
	packages  packages.Querier
	creds     Credentials
	installer Installer
	services  Services
	liveness  Liveness
	logger    zerolog.Logger
}

// NewController wires a controller from its collaborators
func NewController(cfg Config, pkgs packages.Querier, creds Credentials, installer Installer, services Services, liveness Liveness) *Controller {
	if cfg.ExcludedPhases == nil {
		cfg.ExcludedPhases = setup.DefaultExcludedPhases
	}
	return &Controller{
		cfg:       cfg,
		packages:  pkgs,
		creds:     creds,
		installer: installer,
		services:  services,
		liveness:  liveness,
		logger:    log.WithComponent("lifecycle"),
	}
}

// Available reports whether every required package is installed, and
// which are missing if not
func (c *Controller) Available(ctx context.Context) (bool, []string, error) {
	installed, err := c.packages.Installed(ctx)
	if err != nil {
		return false, nil, err
	}
	ok, missing := packages.AllInstalled(installed, c.cfg.RequiredPackages)
	return ok, missing, nil
}

// Start brings the platform to a running state. The host is assumed to have
// passed Available.
func (c *Controller) Start(ctx context.Context) error {
	cls, err := c.Classify(ctx)
	if err != nil {
		return err
	}
	metrics.SetInstallationState(cls.State)

	path := metrics.PathStartServices
	switch cls.State {
	case types.StateConfiguredCurrent:
		c.logger.Info().Str("version", cls.InstalledVersion).Msg("Platform already configured, starting services")
		if err := c.startServices(ctx); err != nil {
			c.recordRun(path, err)
			return err
		}

	case types.StateConfiguredStale:
		path = metrics.PathUpgrade
		c.logger.Info().
			Str("from", cls.MarkerVersion).
			Str("to", cls.InstalledVersion).
			Str("direction", versionChange(cls.MarkerVersion, cls.InstalledVersion)).
			Msg("Platform upgraded, re-running setup")
		if err := c.configure(ctx); err != nil {
			c.recordRun(path, err)
			return err
		}

	default:
		path = metrics.PathConfigure
		c.logger.Info().Str("reason", cls.Reason).Msg("Configuring platform")
		if err := c.configure(ctx); err != nil {
			c.recordRun(path, err)
			return err
		}
	}

	err = c.waitAlive(ctx)
	c.recordRun(path, err)
	return err
}

func (c *Controller) startServices(ctx context.Context) error {
	if err := c.ReconcileProxy(); err != nil {
		return err
	}
	return c.services.StartAndEnable(ctx)
}

// configure reconciles the secret key and runs setup. A failed setup rolls
// back the secret key and the marker so the next run starts fresh.
func (c *Controller) configure(ctx context.Context) error {
	if _, err := c.creds.ReconcileSecretKey(); err != nil {
		return fmt.Errorf("failed to reconcile secret key: %w", err)
	}

	timer := metrics.NewTimer()
	err := c.installer.Run(ctx, setup.Params{ExcludedPhases: c.cfg.ExcludedPhases})
	timer.ObserveDuration(metrics.SetupDuration)
	if err == nil {
		return nil
	}

	var setupErr *setup.Error
	if !errors.As(err, &setupErr) {
		return err
	}

	c.logger.Error().
		Int("exit_code", setupErr.ExitCode).
		Str("output", string(setupErr.Output)).
		Msg("Platform setup failed, rolling back secret key")

	if rbErr := c.rollback(); rbErr != nil {
		return errors.Join(err, rbErr)
	}
	return err
}

func (c *Controller) rollback() error {
	var errs []error
	if err := c.creds.ClearSecretKey(); err != nil {
		errs = append(errs, err)
	}
	if err := c.installer.ClearMarker(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Controller) waitAlive(ctx context.Context) error {
	if err := c.liveness.Poll(ctx); err != nil {
		c.logger.Error().Err(err).Msg("Platform did not become alive")
		return err
	}
	c.logger.Info().Msg("Platform is alive")
	return nil
}

// Stop stops every platform service
func (c *Controller) Stop(ctx context.Context) error {
	err := c.services.Stop(ctx)
	c.recordRun(metrics.PathStop, err)
	return err
}

// Disable stops and disables every platform service
func (c *Controller) Disable(ctx context.Context) error {
	err := c.services.StopAndDisable(ctx)
	c.recordRun(metrics.PathDisable, err)
	return err
}

// Running reports whether every platform service is running
func (c *Controller) Running(ctx context.Context) (bool, error) {
	return c.services.Running(ctx)
}

func (c *Controller) recordRun(path string, err error) {
	metrics.LifecycleRuns.WithLabelValues(path, outcome(err)).Inc()
}

func outcome(err error) string {
	var (
		setupErr   *setup.Error
		serviceErr *supervisor.Error
		timeoutErr *health.TimeoutError
	)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.As(err, &setupErr):
		return metrics.OutcomeSetupFailure
	case errors.As(err, &serviceErr):
		return metrics.OutcomeServiceFailure
	case errors.As(err, &timeoutErr):
		return metrics.OutcomeLivenessTimeout
	default:
		return metrics.OutcomeError
	}
}
