package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// TenantConfig bootstraps a tenant registration at startup. Tenant-config
// persistence is explicitly out of the core's scope (§1); this is the
// process's own bootstrap list, applied at each startup via
// internal/tenant.Register.
type TenantConfig struct {
	// ID is the tenant identifier used as the state-store key prefix.
	ID string `yaml:"id" json:"id"`
	// SourceURL is the upstream ICS feed to fetch and reconcile.
	SourceURL string `yaml:"source_url" json:"source_url"`
	// Timezone overrides DefaultTimezone for this tenant only, if set.
	Timezone string `yaml:"timezone,omitempty" json:"timezone,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the reference tenant server.
	Listen string `yaml:"listen" json:"listen"`

	// DefaultTimezone is the fallback IANA zone applied when normalizing
	// floating datetimes for a tenant with no override (§9 Configuration
	// options).
	DefaultTimezone string `yaml:"default_timezone" json:"default_timezone"`

	// StoreDir is the backing directory for the file-based state store.
	StoreDir string `yaml:"store_dir" json:"store_dir"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// the scheduler uses to reconcile every registered tenant.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// FetchTimeoutSeconds bounds each upstream GET.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" json:"fetch_timeout_seconds"`

	// Tenants is the bootstrap tenant list applied at every startup.
	Tenants []TenantConfig `yaml:"tenants" json:"tenants"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:              "127.0.0.1:8080",
		DefaultTimezone:     "America/New_York",
		StoreDir:            "./var/calproxy-store",
		RefreshCron:         "*/15 * * * *",
		FetchTimeoutSeconds: 15,
		Tenants:             []TenantConfig{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DefaultTimezone == "" {
		c.DefaultTimezone = "America/New_York"
	}
	if c.StoreDir == "" {
		c.StoreDir = "./var/calproxy-store"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = 15
	}
	if c.Tenants == nil {
		c.Tenants = []TenantConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".calproxy-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function. This makes server wiring code slightly nicer:
//
//	cfg, _ := config.Load(path)
//	// ... mutate cfg ...
//	if err := cfg.Save(path); err != nil { ... }
func (c *Config) Save(path string) error {
	return Save(path, c)
}
