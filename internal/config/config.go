package config

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"idfmcal/internal/navitia"
)

// CacheConfig selects and configures the page-cache backend.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string `yaml:"backend" json:"backend" validate:"omitempty,oneof=memory redis"`
	// Addr is the redis host:port, only used by the redis backend.
	Addr string `yaml:"addr" json:"addr" validate:"omitempty,hostname_port"`
	// KeyPrefix namespaces cache keys in a shared redis instance.
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
}

// Config is the top-level application configuration.
type Config struct {
	// BaseURL is the Navitia deployment root.
	BaseURL string `yaml:"base_url" json:"base_url" validate:"omitempty,url"`

	// APIKey is the PRIM marketplace credential. The IDFM_API_KEY
	// environment variable overrides it when set.
	APIKey string `yaml:"api_key" json:"api_key"`

	// OutputDir is where lines/ and stations/ feed directories go.
	OutputDir string `yaml:"output_dir" json:"output_dir" validate:"required"`

	// MappingPath points at the line-station relation CSV. Optional;
	// absence degrades station matching.
	MappingPath string `yaml:"mapping_path" json:"mapping_path"`

	// RefreshCron is a cron-style schedule string (e.g. "*/30 * * * *")
	// for periodic regeneration when not running single-shot.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Timezone is the feed timezone; only Europe/Paris is supported.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Cache selects the page-cache backend.
	Cache CacheConfig `yaml:"cache" json:"cache"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     navitia.DefaultBaseURL,
		OutputDir:   "./dist/calendars",
		MappingPath: "./cache/line_station_mapping.csv",
		RefreshCron: "*/30 * * * *",
		Timezone:    "Europe/Paris",
		Cache: CacheConfig{
			Backend:   "memory",
			KeyPrefix: "idfmcal:",
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.BaseURL == "" {
		c.BaseURL = navitia.DefaultBaseURL
	}
	if c.OutputDir == "" {
		c.OutputDir = "./dist/calendars"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Paris"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "idfmcal:"
	}
	if key := os.Getenv("IDFM_API_KEY"); key != "" {
		c.APIKey = key
	}
}

// Validate checks field constraints plus the cross-field rules the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if c.Cache.Backend == "redis" && c.Cache.Addr == "" {
		return errors.New("invalid config: cache.addr is required for the redis backend")
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there (0600,
// parent directory created) and returned; otherwise the file is read,
// normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.Normalize()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, errors.Wrap(err, "read config")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to path atomically (temp file + rename)
// with 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}

	tmp, err := os.CreateTemp(dir, ".idfmcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
