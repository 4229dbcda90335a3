package main

import (
	"fmt"

	"github.com/cuemby/towerctl/pkg/health"
	"github.com/cuemby/towerctl/pkg/inventory"
	"github.com/cuemby/towerctl/pkg/lifecycle"
	"github.com/cuemby/towerctl/pkg/log"
	"github.com/cuemby/towerctl/pkg/metrics"
	"github.com/cuemby/towerctl/pkg/packages"
	"github.com/cuemby/towerctl/pkg/security"
	"github.com/cuemby/towerctl/pkg/setup"
	"github.com/cuemby/towerctl/pkg/storage"
	"github.com/cuemby/towerctl/pkg/supervisor"
	"github.com/juju/clock"
)

// newController builds the lifecycle controller from cfg. cleanup closes
// the record database.
func newController() (*lifecycle.Controller, func(), error) {
	store, err := storage.NewBoltStore(cfg.RecordDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open record database: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Errorf("Failed to close record database", err)
		}
	}

	// An undefined ServiceSet stays empty, which is never running
	services, err := supervisor.LoadServiceSet(cfg.Services.EnvFile, cfg.Services.Variable)
	if err != nil {
		log.Logger.Warn().Err(err).Msg("No platform services defined")
	}

	creds := security.NewCredentialStore(store, cfg.Platform.SecretKeyFile)
	composer := inventory.NewComposer(creds, cfg.Database)
	invoker := setup.NewInvoker(setup.ExecRunner{}, composer, cfg.Installer.Path, setup.ExtraVars{
		MinimumVarSpace: cfg.Installer.MinimumVarSpace,
		HTTPPort:        cfg.Installer.HTTPPort,
		HTTPSPort:       cfg.Installer.HTTPSPort,
		PackageName:     cfg.Platform.PackageName,
	}, cfg.SetupMarkerPath())

	poller := &health.Poller{
		Checker:  health.NewHTTPChecker(cfg.Liveness.URL, cfg.Liveness.Timeout),
		Attempts: cfg.Liveness.Attempts,
		Delay:    cfg.Liveness.Delay,
		Clock:    clock.WallClock,
		OnAttempt: func(attempt int, result health.Result) {
			metrics.RecordLiveness(result.Healthy)
			log.Logger.Debug().
				Int("attempt", attempt).
				Bool("healthy", result.Healthy).
				Str("message", result.Message).
				Msg("Liveness check")
		},
	}

	ctrl := lifecycle.NewController(lifecycle.Config{
		PackageName:       cfg.Platform.PackageName,
		RequiredPackages:  cfg.Platform.RequiredPackages,
		VersionMarkerFile: cfg.Platform.VersionMarkerFile,
		SettingsFile:      cfg.Platform.SettingsFile,
		ExcludedPhases:    setup.DefaultExcludedPhases,
		Proxy:             cfg.Proxy,
	},
		packages.NewRPMQuerier(),
		creds,
		invoker,
		supervisor.NewAdapter(supervisor.NewSystemdController(), services),
		poller,
	)
	return ctrl, cleanup, nil
}
