package config

import (
	"io"
	"os"

	"github.com/caretaker-tools/caretaker/pkg/consts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type (
	// Database holds the connection settings for the application's
	// PostgreSQL database. The password is a Secret and is only exposed
	// when a connection URI is assembled.
	Database struct {
		// Host of the PostgreSQL server
		Host string `yaml:"host"`

		// Port of the PostgreSQL server
		Port int `yaml:"port"`

		// User to connect as. This user is also granted all privileges on
		// the recreated public schema after a clear.
		User string `yaml:"user"`

		// Password for User
		Password Secret `yaml:"password"`

		// Database is the name of the target database
		Database string `yaml:"database"`
	}

	// Search holds the connection settings for the Meilisearch instance
	// that mirrors a subset of the database content.
	Search struct {
		// Host is the base URL of the Meilisearch server
		Host string `yaml:"host"`

		// Key is the Meilisearch API key (master or admin key)
		Key Secret `yaml:"key"`

		// IndexPrefix namespaces this application's indexes on a shared
		// Meilisearch instance. May be empty.
		IndexPrefix string `yaml:"index_prefix"`
	}

	// Config is the top-level caretaker configuration.
	Config struct {
		// Database contains the PostgreSQL connection settings
		Database Database `yaml:"database"`

		// Search contains the Meilisearch connection settings
		Search Search `yaml:"search"`
	}
)

// Load parses a caretaker configuration from the provided io.Reader.
//
// The reader is expected to contain YAML. Missing optional fields are
// filled with defaults (database host/port, search host); required fields
// are validated.
//
// Example:
//
//	cfg, err := config.Load(strings.NewReader(yamlData))
//	if err != nil {
//		return err
//	}
//	fmt.Println(cfg.Database.Host)
func Load(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = consts.DefaultDatabaseHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = consts.DefaultDatabasePort
	}
	if cfg.Search.Host == "" {
		cfg.Search.Host = consts.DefaultSearchHost
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFile loads a caretaker configuration from the specified file path.
// This is a convenience wrapper around Load.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = f.Close() }()

	cfg, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config file: %s", path)
	}

	return cfg, nil
}

// Validate checks that all required fields are present.
func (c *Config) Validate() error {
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.Database == "" {
		return errors.New("database.database is required")
	}

	return nil
}
