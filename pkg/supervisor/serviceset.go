package supervisor

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/subosito/gotenv"
)

// ServiceSet is the ordered list of units that together make up the platform
type ServiceSet []string

// ParseServiceSet splits a whitespace separated unit list
func ParseServiceSet(value string) ServiceSet {
	return ServiceSet(strings.Fields(value))
}

// LoadServiceSet reads variable from the sysconfig-style env file. When the
// file does not exist the process environment is consulted instead.
func LoadServiceSet(envFile, variable string) (ServiceSet, error) {
	if envFile != "" {
		f, err := os.Open(envFile)
		switch {
		case err == nil:
			defer f.Close()
			env, err := gotenv.StrictParse(f)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", envFile, err)
			}
			if value, ok := env[variable]; ok {
				return ParseServiceSet(value), nil
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to open %s: %w", envFile, err)
		}
	}

	value, ok := os.LookupEnv(variable)
	if !ok {
		return nil, fmt.Errorf("%s is not set", variable)
	}
	return ParseServiceSet(value), nil
}
