package odm

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nasdf/odm/document"
	"github.com/nasdf/odm/mongo"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendIPLD     = "ipld"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Identity kinds.
const (
	IDObjectID = "objectid"
	IDUUID     = "uuid"
)

// Config describes a database.
type Config struct {
	// Backend selects the store: memory, ipld, sqlite, postgres or mongo.
	Backend string `yaml:"backend"`
	// ID selects the identity generator: objectid or uuid.
	ID string `yaml:"id"`
	// DSN is the data source name of the sqlite and postgres backends.
	DSN string `yaml:"dsn"`
	// Mongo configures the mongo backend.
	Mongo mongo.Config `yaml:"mongo"`
	// Schema is a GraphQL schema whose object types validate the collections of the same name.
	Schema string `yaml:"schema"`
	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a config for an in-memory database.
func DefaultConfig() Config {
	return Config{
		Backend:  BackendMemory,
		ID:       IDObjectID,
		LogLevel: "info",
	}
}

// ParseConfig decodes a YAML config on top of the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return ParseConfig(data)
}

// Validate checks that the config names known backends and identity kinds.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendIPLD, BackendSQLite, BackendPostgres, BackendMongo:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}
	switch c.ID {
	case IDObjectID, IDUUID:
	default:
		return fmt.Errorf("%w: unknown id kind %q", ErrInvalidConfig, c.ID)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// IDGenerator returns the identity generator selected by the config.
func (c Config) IDGenerator() document.IDGenerator {
	if c.ID == IDUUID {
		return document.NewUUID
	}
	return document.NewObjectID
}

// ParseLevel returns the slog level with the given name.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, name)
	}
}
