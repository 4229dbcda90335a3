package main

import (
	"fmt"
	"strings"

	"github.com/cuemby/towerctl/pkg/lifecycle"
	"github.com/cuemby/towerctl/pkg/log"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Configure the platform if needed and start it",
	Long: `Start the platform.

A host that has never been set up, or whose setup was rolled back, runs the
installer. A host whose platform package changed since the last setup runs
the installer again. A configured, current host only has its proxy settings
refreshed and its services started. Every start ends by polling the
platform's liveness endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := newController()
		if err != nil {
			return err
		}
		defer cleanup()
		defer flushMetrics()

		ok, missing, err := ctrl.Available(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: missing packages %s", lifecycle.ErrUnavailable, strings.Join(missing, ", "))
		}

		if err := ctrl.Start(cmd.Context()); err != nil {
			return err
		}
		log.Info("Platform started")
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop every platform service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := newController()
		if err != nil {
			return err
		}
		defer cleanup()
		defer flushMetrics()

		return ctrl.Stop(cmd.Context())
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Stop and disable every platform service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := newController()
		if err != nil {
			return err
		}
		defer cleanup()
		defer flushMetrics()

		return ctrl.Disable(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show installation state and whether the platform is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := newController()
		if err != nil {
			return err
		}
		defer cleanup()

		cls, err := ctrl.Classify(cmd.Context())
		if err != nil {
			return err
		}
		running, err := ctrl.Running(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("State: %s\n", cls.State)
		if cls.Reason != "" {
			fmt.Printf("  Reason: %s\n", cls.Reason)
		}
		if cls.InstalledVersion != "" {
			fmt.Printf("  Installed version: %s\n", cls.InstalledVersion)
		}
		if cls.MarkerVersion != "" {
			fmt.Printf("  Configured version: %s\n", cls.MarkerVersion)
		}
		if running {
			fmt.Println("Running: yes")
		} else {
			fmt.Println("Running: no")
		}
		return nil
	},
}

var availableCmd = &cobra.Command{
	Use:   "available",
	Short: "Check the platform packages are installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctrl, cleanup, err := newController()
		if err != nil {
			return err
		}
		defer cleanup()

		ok, missing, err := ctrl.Available(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: missing packages %s", lifecycle.ErrUnavailable, strings.Join(missing, ", "))
		}
		fmt.Println("✓ Platform is available")
		return nil
	},
}
