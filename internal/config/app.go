package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "PAYROLL_"

// AppConfig is the process configuration for the CLI and HTTP adapter
type AppConfig struct {
	RulesDir       string        `yaml:"rules_dir"`
	ListenAddr     string        `yaml:"listen_addr"`
	Workers        int           `yaml:"workers"`
	MaxBatchSize   int           `yaml:"max_batch_size"`
	Format         string        `yaml:"format"`
	Debug          bool          `yaml:"debug"`
	ReloadDebounce time.Duration `yaml:"reload_debounce"`
	WatchRules     bool          `yaml:"watch_rules"`
	CORSOrigins    []string      `yaml:"cors_origins"`

	// Per-client request rate for the HTTP adapter; 0 disables limiting
	RateLimit float64 `yaml:"rate_limit"`
	RateBurst int     `yaml:"rate_burst"`
}

// DefaultAppConfig returns the built-in defaults
func DefaultAppConfig() AppConfig {
	return AppConfig{
		RulesDir:       "configs/rules",
		ListenAddr:     ":8080",
		Workers:        4,
		MaxBatchSize:   1000,
		Format:         "console",
		ReloadDebounce: 250 * time.Millisecond,
		WatchRules:     true,
		CORSOrigins:    []string{"*"},
		RateLimit:      20,
		RateBurst:      40,
	}
}

// LoadAppConfig layers defaults, the YAML file at path (optional, may be
// empty), a .env file (optional) and PAYROLL_* variables, in that order.
// Real environment variables win over .env entries.
func LoadAppConfig(path, dotenvPath string) (AppConfig, error) {
	cfg := DefaultAppConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := decodeYAMLStrict(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	dotenv := map[string]string{}
	if dotenvPath != "" {
		values, err := godotenv.Read(dotenvPath)
		switch {
		case err == nil:
			dotenv = values
		case errors.Is(err, fs.ErrNotExist):
		default:
			return cfg, fmt.Errorf("failed to read %s: %w", dotenvPath, err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *AppConfig) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "RULES_DIR"); ok {
		c.RulesDir = v
	}
	if v, ok := lookup(EnvPrefix + "LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	if v, ok := lookup(EnvPrefix + "FORMAT"); ok {
		c.Format = v
	}
	if v, ok := lookup(EnvPrefix + "WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWORKERS: %w", EnvPrefix, err)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvPrefix + "MAX_BATCH_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_BATCH_SIZE: %w", EnvPrefix, err)
		}
		c.MaxBatchSize = n
	}
	if v, ok := lookup(EnvPrefix + "DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEBUG: %w", EnvPrefix, err)
		}
		c.Debug = b
	}
	if v, ok := lookup(EnvPrefix + "WATCH_RULES"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sWATCH_RULES: %w", EnvPrefix, err)
		}
		c.WatchRules = b
	}
	if v, ok := lookup(EnvPrefix + "RELOAD_DEBOUNCE"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sRELOAD_DEBOUNCE: %w", EnvPrefix, err)
		}
		c.ReloadDebounce = d
	}
	if v, ok := lookup(EnvPrefix + "RATE_LIMIT"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sRATE_LIMIT: %w", EnvPrefix, err)
		}
		c.RateLimit = f
	}
	if v, ok := lookup(EnvPrefix + "CORS_ORIGINS"); ok {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}
	return nil
}

// Validate checks the configuration
func (c AppConfig) Validate() error {
	if strings.TrimSpace(c.RulesDir) == "" {
		return fmt.Errorf("rules_dir is required")
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxBatchSize < 1 {
		return fmt.Errorf("max_batch_size must be at least 1, got %d", c.MaxBatchSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("rate_burst must be at least 1 when rate_limit is set")
	}
	if c.ReloadDebounce < 0 {
		return fmt.Errorf("reload_debounce cannot be negative")
	}
	return nil
}

// Marshal renders the effective configuration as YAML
func (c AppConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
