package lifecycle

import (
	"context"
	"errors"

	"github.com/cuemby/towerctl/pkg/setup"
	"github.com/cuemby/towerctl/pkg/types"
)

type fakeQuerier struct {
	pkgs map[string]types.Package
	err  error
}

func (f *fakeQuerier) Installed(context.Context) (map[string]types.Package, error) {
	return f.pkgs, f.err
}

func installed(name, version string) *fakeQuerier {
	return &fakeQuerier{pkgs: map[string]types.Package{
		name: {Name: name, Version: version, Release: "1.el8"},
	}}
}

type fakeCreds struct {
	fileKey    string
	fileExists bool
	stored     string

	reconciled int
	cleared    int
	clearErr   error
}

func (f *fakeCreds) ReadSecretKeyFile() (string, bool, error) {
	return f.fileKey, f.fileExists, nil
}

func (f *fakeCreds) SecretKey() (string, error) { return f.stored, nil }

func (f *fakeCreds) ReconcileSecretKey() (string, error) {
	f.reconciled++
	if f.stored == "" {
		f.stored = "generated"
	}
	f.fileKey, f.fileExists = f.stored, true
	return f.stored, nil
}

func (f *fakeCreds) ClearSecretKey() error {
	f.cleared++
	f.stored = ""
	return f.clearErr
}

type fakeInstaller struct {
	marker bool
	err    error

	runs   []setup.Params
	onRun  func()
	clears int
}

func (f *fakeInstaller) Run(_ context.Context, params setup.Params) error {
	f.runs = append(f.runs, params)
	if f.err != nil {
		return f.err
	}
	f.marker = true
	if f.onRun != nil {
		f.onRun()
	}
	return nil
}

func (f *fakeInstaller) MarkerExists() (bool, error) { return f.marker, nil }

func (f *fakeInstaller) ClearMarker() error {
	f.clears++
	f.marker = false
	return nil
}

type fakeServices struct {
	calls   []string
	err     error
	running bool
}

func (f *fakeServices) record(op string) error {
	f.calls = append(f.calls, op)
	return f.err
}

func (f *fakeServices) StartAndEnable(context.Context) error { return f.record("start") }
func (f *fakeServices) Stop(context.Context) error { return f.record("stop") }
func (f *fakeServices) StopAndDisable(context.Context) error { return f.record("disable") }

func (f *fakeServices) Running(context.Context) (bool, error) {
	return f.running, f.err
}

type fakeLiveness struct {
	polls int
	err   error
}

func (f *fakeLiveness) Poll(context.Context) error {
	f.polls++
	return f.err
}

var errBoom = errors.New("boom")
