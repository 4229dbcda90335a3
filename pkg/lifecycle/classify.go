package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cuemby/towerctl/pkg/packages"
	"github.com/cuemby/towerctl/pkg/types"
)

// Classify derives the InstallationState from the secret-key file, the
// setup marker, the credential record, the version marker and the package
// inventory. Nothing is cached; every call re-reads all of them.
func (c *Controller) Classify(ctx context.Context) (types.Classification, error) {
	fileKey, exists, err := c.creds.ReadSecretKeyFile()
	if err != nil {
		return types.Classification{}, err
	}
	if !exists {
		return c.absent("secret key file missing"), nil
	}

	marker, err := c.installer.MarkerExists()
	if err != nil {
		return types.Classification{}, err
	}
	if !marker {
		return c.absent("setup marker missing"), nil
	}

	stored, err := c.creds.SecretKey()
	if err != nil {
		return types.Classification{}, err
	}
	if stored == "" || stored != fileKey {
		return c.absent("secret key file does not match record"), nil
	}

	installed, err := c.packages.Installed(ctx)
	if err != nil {
		return types.Classification{}, err
	}
	markerVersion, err := c.readVersionMarker()
	if err != nil {
		return types.Classification{}, err
	}

	cls := types.Classification{
		State:            types.StateConfiguredStale,
		InstalledVersion: packages.Version(installed, c.cfg.PackageName),
		MarkerVersion:    markerVersion,
	}
	if cls.InstalledVersion != "" && cls.InstalledVersion == cls.MarkerVersion {
		cls.State = types.StateConfiguredCurrent
	}

	c.logger.Debug().
		Str("state", string(cls.State)).
		Str("installed_version", cls.InstalledVersion).
		Str("marker_version", cls.MarkerVersion).
		Msg("Classified installation")
	return cls, nil
}

func (c *Controller) absent(reason string) types.Classification {
	c.logger.Debug().Str("reason", reason).Msg("Classified installation as absent")
	return types.Classification{State: types.StateAbsent, Reason: reason}
}

// readVersionMarker returns the version the installer recorded, or "" if
// the marker is missing
func (c *Controller) readVersionMarker() (string, error) {
	data, err := os.ReadFile(c.cfg.VersionMarkerFile)
	if errors.Is(err, os.ErrNotExist) {
		c.logger.Warn().Str("path", c.cfg.VersionMarkerFile).Msg("Version marker missing")
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read version marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// versionChange describes the move from one platform version to another
func versionChange(from, to string) string {
	a, errA := semver.NewVersion(from)
	b, errB := semver.NewVersion(to)
	if errA != nil || errB != nil {
		return "unparsable"
	}
	switch {
	case b.GreaterThan(a):
		return "upgrade"
	case b.LessThan(a):
		return "downgrade"
	default:
		return "unchanged"
	}
}
