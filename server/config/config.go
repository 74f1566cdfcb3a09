// Package config holds server configuration types and the logic to turn a DB
// connection string into a connected dao.Store.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/sequitur/server/dao"
	"github.com/dekarrin/sequitur/server/dao/inmem"
	"github.com/dekarrin/sequitur/server/dao/sqlite"
)

// DBType is the type of a database connection.
type DBType string

func (dbt DBType) String() string {
	return string(dbt)
}

const (
	DatabaseNone     DBType = "none"
	DatabaseSQLite   DBType = "sqlite"
	DatabaseInMemory DBType = "inmem"
)

const (
	MaxSecretSize = 64
	MinSecretSize = 32

	// DefaultMaxPushBytes bounds how many terminal bytes a single push
	// request may contain, so one request can't force an unbounded amount of
	// synchronous enforcement work.
	DefaultMaxPushBytes = 1 << 20 // 1 MiB
)

// ParseDBType parses a string found in a connection string into a DBType.
func ParseDBType(s string) (DBType, error) {
	switch strings.ToLower(s) {
	case DatabaseSQLite.String():
		return DatabaseSQLite, nil
	case DatabaseInMemory.String():
		return DatabaseInMemory, nil
	default:
		return DatabaseNone, fmt.Errorf("DB type not one of 'sqlite' or 'inmem': %q", s)
	}
}

// Database holds settings for connecting to a persistence layer.
type Database struct {
	// Type determines which of the other fields are meaningful.
	Type DBType

	// DataDir is where SQLite stores its database file. Only used when
	// Type is DatabaseSQLite.
	DataDir string
}

// Connect initializes the configured store.
func (db Database) Connect() (dao.Store, error) {
	switch db.Type {
	case DatabaseInMemory:
		return inmem.NewDatastore(), nil
	case DatabaseSQLite:
		if err := os.MkdirAll(db.DataDir, 0770); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		st, err := sqlite.NewDatastore(db.DataDir)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite: %w", err)
		}
		return st, nil
	case DatabaseNone:
		return nil, fmt.Errorf("cannot connect to 'none' DB")
	default:
		return nil, fmt.Errorf("unknown database type: %q", db.Type.String())
	}
}

// Validate returns an error if db's fields are inconsistent with its Type.
func (db Database) Validate() error {
	switch db.Type {
	case DatabaseInMemory:
		return nil
	case DatabaseSQLite:
		if db.DataDir == "" {
			return fmt.Errorf("DataDir not set to path")
		}
		return nil
	case DatabaseNone:
		return fmt.Errorf("'none' DB is not valid")
	default:
		return fmt.Errorf("unknown database type: %q", db.Type.String())
	}
}

// ParseDBConnString parses a string of the form "engine:params" (or just
// "engine" when no params are required) into a Database.
func ParseDBConnString(s string) (Database, error) {
	var paramStr string
	parts := strings.SplitN(s, ":", 2)
	if len(parts) == 2 {
		paramStr = strings.TrimSpace(parts[1])
	}

	eng, err := ParseDBType(strings.TrimSpace(parts[0]))
	if err != nil {
		return Database{}, fmt.Errorf("unsupported DB engine: %w", err)
	}

	switch eng {
	case DatabaseInMemory:
		if paramStr != "" {
			return Database{}, fmt.Errorf("unsupported param(s) for in-memory DB engine: %s", paramStr)
		}
		return Database{Type: DatabaseInMemory}, nil
	case DatabaseSQLite:
		if paramStr == "" {
			return Database{}, fmt.Errorf("sqlite DB engine requires path to data directory after ':'")
		}
		return Database{Type: DatabaseSQLite, DataDir: paramStr}, nil
	default:
		return Database{}, fmt.Errorf("cannot specify DB engine 'none' (perhaps you wanted 'inmem'?)")
	}
}

// Config configures a running server.
type Config struct {
	// TokenSecret signs issued JWTs.
	TokenSecret []byte

	// DB selects and configures the persistence layer.
	DB Database

	// UnauthDelayMillis adds latency to unauthorized/unauthenticated
	// responses, as a mild anti-flood measure for naive clients. Negative
	// disables the delay.
	UnauthDelayMillis int

	// MaxPushBytes bounds how many terminal bytes one push request may
	// contain. Zero means DefaultMaxPushBytes.
	MaxPushBytes int
}

// UnauthDelay returns the configured delay as a time.Duration.
func (cfg Config) UnauthDelay() time.Duration {
	if cfg.UnauthDelayMillis < 1 {
		return 0
	}
	return time.Millisecond * time.Duration(cfg.UnauthDelayMillis)
}

// FillDefaults returns a copy of cfg with unset fields set to their defaults.
func (cfg Config) FillDefaults() Config {
	filled := cfg

	if filled.TokenSecret == nil {
		filled.TokenSecret = []byte("DEFAULT_TOKEN_SECRET-DO_NOT_USE_IN_PROD!")
	}
	if filled.DB.Type == DatabaseNone {
		filled.DB = Database{Type: DatabaseInMemory}
	}
	if filled.UnauthDelayMillis == 0 {
		filled.UnauthDelayMillis = 1000
	}
	if filled.MaxPushBytes == 0 {
		filled.MaxPushBytes = DefaultMaxPushBytes
	}

	return filled
}

// Validate returns an error if cfg has invalid field values. Call
// FillDefaults first if defaults should be used for unset fields.
func (cfg Config) Validate() error {
	if len(cfg.TokenSecret) < MinSecretSize {
		return fmt.Errorf("token secret: must be at least %d bytes, but is %d", MinSecretSize, len(cfg.TokenSecret))
	}
	if len(cfg.TokenSecret) > MaxSecretSize {
		return fmt.Errorf("token secret: must be no more than %d bytes, but is %d", MaxSecretSize, len(cfg.TokenSecret))
	}
	if err := cfg.DB.Validate(); err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if cfg.MaxPushBytes < 0 {
		return fmt.Errorf("max push bytes: must not be negative")
	}

	return nil
}

// FileConfig is the shape of a TOML config file accepted via cmd/sqserver's
// --config flag. Its fields take the lowest priority of any configuration
// source: flags and environment variables both override it.
type FileConfig struct {
	Listen            string `toml:"listen"`
	TokenSecret       string `toml:"token_secret"`
	DB                string `toml:"db"`
	UnauthDelayMillis int    `toml:"unauth_delay_millis"`
	MaxPushBytes      int    `toml:"max_push_bytes"`
}

// LoadFile reads and decodes a TOML config file at path.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	_, err := toml.DecodeFile(path, &fc)
	if err != nil {
		return FileConfig{}, fmt.Errorf("decode config file: %w", err)
	}
	return fc, nil
}
