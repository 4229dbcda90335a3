package types

import (
	"time"
)

// InstallationState is the lifecycle status of the platform on this host.
// It is derived on every invocation and never persisted.
type InstallationState string

const (
	// StateAbsent means the platform has never been configured, or a
	// previous setup run did not complete.
	StateAbsent InstallationState = "absent"

	// StateConfiguredCurrent means setup completed for the installed
	// platform package version.
	StateConfiguredCurrent InstallationState = "configured-current"

	// StateConfiguredStale means setup completed, but for a different
	// platform package version than the one now installed.
	StateConfiguredStale InstallationState = "configured-stale"
)

// Role identifies which credential a password belongs to
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleMessageBroker Role = "message-broker"
	RoleDatabase      Role = "database"
)

// Roles lists every credential role in a stable order
var Roles = []Role{RoleAdmin, RoleMessageBroker, RoleDatabase}

// DefaultUsername returns the username created for a role.
func (r Role) DefaultUsername() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleMessageBroker:
		return "tower"
	case RoleDatabase:
		return "awx"
	default:
		return ""
	}
}

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Credential is a generated username/password pair for a role.
// Once stored it is never mutated.
type Credential struct {
	Role      Role      `json:"role"`
	Username  string    `json:"username,omitempty"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
}

// Record is the singleton persisted credential record for the host
type Record struct {
	SecretKey   string              `json:"secret_key,omitempty"`
	Credentials map[Role]Credential `json:"credentials,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Credential returns the stored credential for role, if any.
func (r *Record) Credential(role Role) (Credential, bool) {
	if r == nil || r.Credentials == nil {
		return Credential{}, false
	}
	c, ok := r.Credentials[role]
	return c, ok
}

// Classification is the result of inspecting the host for its
// InstallationState, along with the inputs that decided it.
type Classification struct {
	State InstallationState

	// InstalledVersion is the platform package version reported by the
	// package inventory. Empty when the package is not installed.
	InstalledVersion string

	// MarkerVersion is the version recorded by the installer in the
	// on-disk version marker. Empty when the marker is missing.
	MarkerVersion string

	// Reason is a short human-readable explanation for Absent.
	Reason string
}

// Package is an installed OS package
type Package struct {
	Name    string
	Version string
	Release string
}
