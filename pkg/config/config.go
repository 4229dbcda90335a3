package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPath is where towerctl looks for its configuration file
	DefaultPath = "/etc/towerctl/config.yaml"

	// DefaultDataDir holds the record database and the setup marker
	DefaultDataDir = "/var/lib/towerctl"
)

// Config is the complete towerctl configuration
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Platform  PlatformConfig  `yaml:"platform"`
	Installer InstallerConfig `yaml:"installer"`
	Database  DatabaseConfig  `yaml:"database"`
	Services  ServicesConfig  `yaml:"services"`
	Liveness  LivenessConfig  `yaml:"liveness"`
	Proxy     ProxySettings   `yaml:"proxy"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// PlatformConfig locates the files the platform package and installer own
type PlatformConfig struct {
	// PackageName is the platform package whose version drives upgrades
	PackageName string `yaml:"package_name"`

	// RequiredPackages must all be installed for the platform to be available
	RequiredPackages []string `yaml:"required_packages"`

	SecretKeyFile     string `yaml:"secret_key_file"`
	SettingsFile      string `yaml:"settings_file"`
	VersionMarkerFile string `yaml:"version_marker_file"`
}

// InstallerConfig configures the external setup program
type InstallerConfig struct {
	Path            string `yaml:"path"`
	HTTPPort        int    `yaml:"http_port"`
	HTTPSPort       int    `yaml:"https_port"`
	MinimumVarSpace int    `yaml:"minimum_var_space"`
}

// DatabaseConfig holds the external database connection parameters
type DatabaseConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ServicesConfig says where the ServiceSet is defined
type ServicesConfig struct {
	EnvFile  string `yaml:"env_file"`
	Variable string `yaml:"variable"`
}

// LivenessConfig controls the post-start liveness poll
type LivenessConfig struct {
	URL      string        `yaml:"url"`
	Attempts int           `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ProxySettings holds the platform-scoped proxy and the host-wide default.
// The scoped proxy wins when its host is set.
type ProxySettings struct {
	Automation Proxy `yaml:"automation"`
	Default    Proxy `yaml:"default"`
}

// Proxy describes an outbound HTTP proxy
type Proxy struct {
	Scheme   string `yaml:"scheme"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// MetricsConfig controls the node-exporter textfile output
type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

// Default returns a Config populated with the appliance defaults
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir,
		Platform: PlatformConfig{
			PackageName:       "ansible-tower-server",
			RequiredPackages:  []string{"ansible-tower-server", "ansible-tower-setup"},
			SecretKeyFile:     "/etc/tower/SECRET_KEY",
			SettingsFile:      "/etc/tower/settings.py",
			VersionMarkerFile: "/var/lib/awx/.tower_version",
		},
		Installer: InstallerConfig{
			Path:            "/opt/ansible-tower-setup/setup.sh",
			HTTPPort:        54321,
			HTTPSPort:       54322,
			MinimumVarSpace: 0,
		},
		Database: DatabaseConfig{
			Host: "localhost",
			Port: 5432,
		},
		Services: ServicesConfig{
			EnvFile:  "/etc/sysconfig/ansible-tower",
			Variable: "TOWER_SERVICES",
		},
		Liveness: LivenessConfig{
			URL:      "http://localhost:54321/api/v1/ping/",
			Attempts: 5,
			Delay:    10 * time.Second,
			Timeout:  10 * time.Second,
		},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error: the defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// applyDefaults restores defaults for fields a config file blanked out
func (c *Config) applyDefaults() {
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
}

// Validate checks the config for values the lifecycle engine cannot use
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Platform.PackageName == "" {
		return fmt.Errorf("platform.package_name is required")
	}
	if c.Platform.SecretKeyFile == "" || c.Platform.SettingsFile == "" || c.Platform.VersionMarkerFile == "" {
		return fmt.Errorf("platform file paths are required")
	}
	if c.Installer.Path == "" {
		return fmt.Errorf("installer.path is required")
	}
	if c.Services.Variable == "" {
		return fmt.Errorf("services.variable is required")
	}
	if c.Liveness.URL == "" {
		return fmt.Errorf("liveness.url is required")
	}
	if c.Liveness.Attempts <= 0 {
		return fmt.Errorf("liveness.attempts must be positive, got %d", c.Liveness.Attempts)
	}
	if c.Liveness.Delay < 0 {
		return fmt.Errorf("liveness.delay must not be negative")
	}
	return nil
}

// RecordDBPath is the bbolt file holding the credential record
func (c *Config) RecordDBPath() string {
	return filepath.Join(c.DataDir, "towerctl.db")
}

// SetupMarkerPath is the existence-only flag written after a successful setup
func (c *Config) SetupMarkerPath() string {
	return filepath.Join(c.DataDir, "tower_setup_completed")
}

// Configured reports whether the proxy has a host set
func (p Proxy) Configured() bool {
	return p.Host != ""
}

// Effective returns the proxy to apply: the automation-scoped one if set,
// otherwise the default. ok is false when neither is configured.
func (s ProxySettings) Effective() (Proxy, bool) {
	if s.Automation.Configured() {
		return s.Automation, true
	}
	if s.Default.Configured() {
		return s.Default, true
	}
	return Proxy{}, false
}
