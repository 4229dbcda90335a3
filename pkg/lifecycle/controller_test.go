package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuemby/towerctl/pkg/health"
	"github.com/cuemby/towerctl/pkg/setup"
	"github.com/cuemby/towerctl/pkg/supervisor"
	"github.com/cuemby/towerctl/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPackage = "ansible-tower-server"

type harness struct {
	ctrl      *Controller
	creds     *fakeCreds
	installer *fakeInstaller
	services  *fakeServices
	liveness  *fakeLiveness
	dir       string
}

func newHarness(t *testing.T, querier *fakeQuerier) *harness {
	t.Helper()
	dir := t.TempDir()

	settings := filepath.Join(dir, "settings.py")
	require.NoError(t, os.WriteFile(settings, []byte("DEBUG = False\n"), 0640))

	h := &harness{
		creds:     &fakeCreds{},
		installer: &fakeInstaller{},
		services:  &fakeServices{},
		liveness:  &fakeLiveness{},
		dir:       dir,
	}
	cfg := Config{
		PackageName:       testPackage,
		RequiredPackages:  []string{testPackage},
		VersionMarkerFile: filepath.Join(dir, ".tower_version"),
		SettingsFile:      settings,
	}
	h.ctrl = NewController(cfg, querier, h.creds, h.installer, h.services, h.liveness)
	return h
}

func (h *harness) writeVersionMarker(t *testing.T, version string) {
	t.Helper()
	require.NoError(t, os.WriteFile(h.ctrl.cfg.VersionMarkerFile, []byte(version+"\n"), 0644))
}

// configured puts the harness in the state a successful setup leaves behind
func (h *harness) configured(t *testing.T, version string) {
	t.Helper()
	h.creds.fileKey, h.creds.fileExists, h.creds.stored = "key", true, "key"
	h.installer.marker = true
	h.writeVersionMarker(t, version)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		fileKey   string
		exists    bool
		stored    string
		marker    bool
		version   string // empty means no version marker
		installed string
		want      types.InstallationState
	}{
		{name: "no secret key file", stored: "key", marker: true, version: "3.8.1", installed: "3.8.1", want: types.StateAbsent},
		{name: "no setup marker", fileKey: "key", exists: true, stored: "key", version: "3.8.1", installed: "3.8.1", want: types.StateAbsent},
		{name: "empty record key", fileKey: "key", exists: true, marker: true, version: "3.8.1", installed: "3.8.1", want: types.StateAbsent},
		{name: "key mismatch", fileKey: "other", exists: true, stored: "key", marker: true, version: "3.8.1", installed: "3.8.1", want: types.StateAbsent},
		{name: "current", fileKey: "key", exists: true, stored: "key", marker: true, version: "3.8.1", installed: "3.8.1", want: types.StateConfiguredCurrent},
		{name: "upgraded package", fileKey: "key", exists: true, stored: "key", marker: true, version: "3.7.0", installed: "3.8.1", want: types.StateConfiguredStale},
		{name: "no version marker", fileKey: "key", exists: true, stored: "key", marker: true, installed: "3.8.1", want: types.StateConfiguredStale},
		{name: "package not installed", fileKey: "key", exists: true, stored: "key", marker: true, version: "3.8.1", want: types.StateConfiguredStale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			querier := &fakeQuerier{pkgs: map[string]types.Package{}}
			if tt.installed != "" {
				querier = installed(testPackage, tt.installed)
			}
			h := newHarness(t, querier)
			h.creds.fileKey, h.creds.fileExists, h.creds.stored = tt.fileKey, tt.exists, tt.stored
			h.installer.marker = tt.marker
			if tt.version != "" {
				h.writeVersionMarker(t, tt.version)
			}

			cls, err := h.ctrl.Classify(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, cls.State)
		})
	}
}

func TestClassify_QueryError(t *testing.T) {
	h := newHarness(t, &fakeQuerier{err: errBoom})
	h.configured(t, "3.8.1")

	_, err := h.ctrl.Classify(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestStart_FreshHost(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	h.installer.onRun = func() { h.writeVersionMarker(t, "3.8.1") }

	require.NoError(t, h.ctrl.Start(context.Background()))

	assert.Equal(t, 1, h.creds.reconciled)
	require.Len(t, h.installer.runs, 1)
	assert.Equal(t, []string{"packages", "migrations", "firewall"}, h.installer.runs[0].ExcludedPhases)
	assert.Empty(t, h.services.calls, "setup starts services itself")
	assert.Equal(t, 1, h.liveness.polls)

	cls, err := h.ctrl.Classify(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.StateConfiguredCurrent, cls.State)
}

func TestStart_CurrentStartsServices(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	h.configured(t, "3.8.1")

	require.NoError(t, h.ctrl.Start(context.Background()))

	assert.Empty(t, h.installer.runs)
	assert.Zero(t, h.creds.reconciled)
	assert.Equal(t, []string{"start"}, h.services.calls)
	assert.Equal(t, 1, h.liveness.polls)
}

func TestStart_UpgradedHostRerunsSetup(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	h.configured(t, "3.7.0")
	h.installer.onRun = func() { h.writeVersionMarker(t, "3.8.1") }

	require.NoError(t, h.ctrl.Start(context.Background()))

	assert.Len(t, h.installer.runs, 1)
	assert.Empty(t, h.services.calls)
	assert.Equal(t, "key", h.creds.stored, "existing key is kept")
}

func TestStart_SetupFailureRollsBack(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	h.installer.err = &setup.Error{ExitCode: 2, Output: []byte("TASK failed"), Err: errBoom}

	err := h.ctrl.Start(context.Background())

	var setupErr *setup.Error
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, 2, setupErr.ExitCode)
	assert.Equal(t, 1, h.creds.cleared)
	assert.Equal(t, 1, h.installer.clears)
	assert.Zero(t, h.liveness.polls)

	cls, err := h.ctrl.Classify(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, types.StateConfiguredCurrent, cls.State)
}

func TestStart_RollbackErrorIsJoined(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	h.installer.err = &setup.Error{ExitCode: 1, Err: errBoom}
	clearErr := errors.New("read-only record")
	h.creds.clearErr = clearErr

	err := h.ctrl.Start(context.Background())

	var setupErr *setup.Error
	assert.ErrorAs(t, err, &setupErr)
	assert.ErrorIs(t, err, clearErr)
}

func TestStart_NonSetupErrorSkipsRollback(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	h.installer.err = errBoom

	err := h.ctrl.Start(context.Background())

	assert.ErrorIs(t, err, errBoom)
	assert.Zero(t, h.creds.cleared)
}

func TestStart_ServiceFailureNoRollback(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	h.configured(t, "3.8.1")
	h.services.err = &supervisor.Error{Unit: "nginx", Op: "start", Err: errBoom}

	err := h.ctrl.Start(context.Background())

	var svcErr *supervisor.Error
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "nginx", svcErr.Unit)
	assert.Zero(t, h.creds.cleared)
	assert.Zero(t, h.installer.clears)
	assert.Zero(t, h.liveness.polls)
}

func TestStart_LivenessTimeout(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	h.configured(t, "3.8.1")
	h.liveness.err = &health.TimeoutError{Attempts: 5}

	err := h.ctrl.Start(context.Background())

	var timeout *health.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 5, timeout.Attempts)
	assert.Zero(t, h.creds.cleared, "a timeout is not a setup failure")
}

func TestStart_MissingSettingsFile(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	h.configured(t, "3.8.1")
	require.NoError(t, os.Remove(h.ctrl.cfg.SettingsFile))

	err := h.ctrl.Start(context.Background())

	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, h.services.calls)
}

func TestStopDisableRunning(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	h.services.running = true

	require.NoError(t, h.ctrl.Stop(context.Background()))
	require.NoError(t, h.ctrl.Disable(context.Background()))
	running, err := h.ctrl.Running(context.Background())
	require.NoError(t, err)

	assert.True(t, running)
	assert.Equal(t, []string{"stop", "disable"}, h.services.calls)
	assert.Empty(t, h.installer.runs)
}

func TestAvailable(t *testing.T) {
	h := newHarness(t, installed(testPackage, "3.8.1"))
	ok, missing, err := h.ctrl.Available(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, missing)

	h = newHarness(t, &fakeQuerier{pkgs: map[string]types.Package{}})
	ok, missing, err = h.ctrl.Available(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{testPackage}, missing)
}

func TestVersionChange(t *testing.T) {
	assert.Equal(t, "upgrade", versionChange("3.7.0", "3.8.1"))
	assert.Equal(t, "downgrade", versionChange("3.8.1", "3.7.0"))
	assert.Equal(t, "unchanged", versionChange("3.8.1", "3.8.1"))
	assert.Equal(t, "unparsable", versionChange("", "3.8.1"))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", outcome(nil))
	assert.Equal(t, "setup_failure", outcome(&setup.Error{Err: errBoom}))
	assert.Equal(t, "service_failure", outcome(&supervisor.Error{Err: errBoom}))
	assert.Equal(t, "liveness_timeout", outcome(&health.TimeoutError{}))
	assert.Equal(t, "error", outcome(errBoom))
}
