// Package packages queries the host's installed OS packages.
package packages

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/cuemby/towerctl/pkg/types"
)

// rpmQueryFormat prints one tab separated package per line
const rpmQueryFormat = `%{NAME}\t%{VERSION}\t%{RELEASE}\n`

// Querier reports the installed packages, keyed by name
type Querier interface {
	Installed(ctx context.Context) (map[string]types.Package, error)
}

// RPMQuerier lists packages with rpm -qa
type RPMQuerier struct {
	run func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewRPMQuerier creates a querier that shells out to rpm
func NewRPMQuerier() *RPMQuerier {
	return &RPMQuerier{
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
	}
}

func (q *RPMQuerier) Installed(ctx context.Context) (map[string]types.Package, error) {
	out, err := q.run(ctx, "rpm", "-qa", "--queryformat", rpmQueryFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to query installed packages: %w", err)
	}
	return ParseRPMOutput(out)
}

// ParseRPMOutput parses rpm -qa output in rpmQueryFormat. Blank lines are
// skipped; a line without a name and version is an error.
func ParseRPMOutput(out []byte) (map[string]types.Package, error) {
	pkgs := make(map[string]types.Package)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		fields := strings.Split(text, "\t")
		if len(fields) < 2 || fields[0] == "" || fields[1] == "" {
			return nil, fmt.Errorf("malformed package line %d: %q", line, text)
		}

		pkg := types.Package{Name: fields[0], Version: fields[1]}
		if len(fields) > 2 {
			pkg.Release = fields[2]
		}
		// gpg-pubkey and friends can repeat; the last entry wins
		pkgs[pkg.Name] = pkg
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read package list: %w", err)
	}
	return pkgs, nil
}

// Version returns the installed version of name, or "" if not installed
func Version(pkgs map[string]types.Package, name string) string {
	return pkgs[name].Version
}

// AllInstalled reports whether every name is present in pkgs, and which
// are missing
func AllInstalled(pkgs map[string]types.Package, names []string) (bool, []string) {
	var missing []string
	for _, name := range names {
		if _, ok := pkgs[name]; !ok {
			missing = append(missing, name)
		}
	}
	return len(missing) == 0, missing
}
