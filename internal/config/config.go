package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/udisondev/attrengine/internal/attribute"
)

// Store kinds.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"
)

// Engine holds all configuration for the attribute server.
type Engine struct {
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"` // debug, info, warn, error

	// Persistence
	Store           string         `yaml:"store" env:"STORE"`
	Database        DatabaseConfig `yaml:"database" envPrefix:"DB_"`
	SQLitePath      string         `yaml:"sqlite_path" env:"SQLITE_PATH"`
	SaveInterval    time.Duration  `yaml:"save_interval" env:"SAVE_INTERVAL"`
	SaveConcurrency int            `yaml:"save_concurrency" env:"SAVE_CONCURRENCY"`

	// Expired modifier sweep
	SweepInterval time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`

	// Prometheus endpoint; empty disables it.
	MetricsAddress string `yaml:"metrics_address" env:"METRICS_ADDRESS"`

	// Base values seeded into every new collection, keyed by attribute name.
	Defaults map[string]float64 `yaml:"defaults"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	DBName   string `yaml:"dbname" env:"NAME"`
	SSLMode  string `yaml:"sslmode" env:"SSLMODE"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultEngine returns Engine config with sensible defaults.
func DefaultEngine() Engine {
	return Engine{
		LogLevel:        "info",
		Store:           StoreSQLite,
		SQLitePath:      "data/attributes.db",
		SaveInterval:    time.Minute,
		SaveConcurrency: 4,
		SweepInterval:   5 * time.Second,
		MetricsAddress:  ":9464",
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "attrengine",
			Password: "attrengine",
			DBName:   "attrengine",
			SSLMode:  "disable",
		},
		Defaults: map[string]float64{
			"hp":          100,
			"hp_max":      100,
			"qi":          50,
			"qi_max":      50,
			"stamina":     100,
			"stamina_max": 100,
			"attack":      10,
			"defense":     5,
			"speed":       100,
			"crit_rate":   5,
			"crit_damage": 150,
		},
	}
}

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "ATTR_"

// Load reads config from a YAML file, then applies ATTR_* environment overrides.
// If the file doesn't exist, defaults are used.
func Load(path string) (Engine, error) {
	cfg := DefaultEngine()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges and attribute names.
func (c Engine) Validate() error {
	switch c.Store {
	case StorePostgres, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Store == StoreSQLite && c.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required for store %q", c.Store)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep_interval must be positive, got %s", c.SweepInterval)
	}
	if c.SaveInterval <= 0 {
		return fmt.Errorf("save_interval must be positive, got %s", c.SaveInterval)
	}
	if c.SaveConcurrency <= 0 {
		return fmt.Errorf("save_concurrency must be positive, got %d", c.SaveConcurrency)
	}
	for name := range c.Defaults {
		if _, ok := attribute.Lookup(name); !ok {
			return fmt.Errorf("unknown default attribute %q", name)
		}
	}
	return nil
}

// DefaultBases resolves Defaults into attribute ids. Unknown names are dropped;
// Validate reports them.
func (c Engine) DefaultBases() map[attribute.ID]float64 {
	bases := make(map[attribute.ID]float64, len(c.Defaults))
	for name, v := range c.Defaults {
		if id, ok := attribute.Lookup(name); ok {
			bases[id] = v
		}
	}
	return bases
}
