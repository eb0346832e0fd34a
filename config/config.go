// Package config binds command-line flags, environment variables and an
// optional config file into a validated Config.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"stockctl/store"
)

// EnvPrefix namespaces environment overrides, e.g. STOCKCTL_LOG_LEVEL.
const EnvPrefix = "STOCKCTL"

// Keys shared by flags, env and config files.
const (
	KeyStore         = "store"
	KeyDB            = "db"
	KeyDSN           = "dsn"
	KeyStoreFile     = "store-file"
	KeyVATDefault    = "vat-default"
	KeyLogLevel      = "log-level"
	KeyLogFile       = "log-file"
	KeyLogMaxSizeMB  = "log-max-size-mb"
	KeyLogMaxBackups = "log-max-backups"
	KeyDBDebug       = "db-debug"
	KeyConfig        = "config"
)

// Config is the resolved application configuration.
type Config struct {
	Store         string
	DBPath        string
	DSN           string
	StoreFile     string
	VATDefault    float64
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	DBDebug       bool
}

// New returns a viper instance reading STOCKCTL_* environment variables.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	return v
}

// RegisterFlags declares the persistent flags on fs and binds each to v.
func RegisterFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	fs.String(KeyStore, store.KindSQLite, "store backend: sqlite|postgres|memory|file")
	fs.String(KeyDB, "data/inventory.db", "sqlite database path")
	fs.String(KeyDSN, "", "postgres connection string")
	fs.String(KeyStoreFile, "data/inventory.json", "file store path")
	fs.Float64(KeyVATDefault, 0.20, "default VAT rate for new products")
	fs.String(KeyLogLevel, "info", "log level: debug|info|warn|error")
	fs.String(KeyLogFile, "inventory.log", "rotating log file, empty disables")
	fs.Int(KeyLogMaxSizeMB, 1, "log file size before rotation, in megabytes")
	fs.Int(KeyLogMaxBackups, 3, "rotated log files to keep")
	fs.Bool(KeyDBDebug, false, "log every SQL statement")
	fs.String(KeyConfig, "", "config file")

	for _, key := range []string{
		KeyStore, KeyDB, KeyDSN, KeyStoreFile, KeyVATDefault,
		KeyLogLevel, KeyLogFile, KeyLogMaxSizeMB, KeyLogMaxBackups, KeyDBDebug, KeyConfig,
	} {
		if err := v.BindPFlag(key, fs.Lookup(key)); err != nil {
			return fmt.Errorf("bind flag %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the optional config file and returns the validated configuration.
func Load(v *viper.Viper) (Config, error) {
	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{
		Store:         strings.ToLower(strings.TrimSpace(v.GetString(KeyStore))),
		DBPath:        v.GetString(KeyDB),
		DSN:           v.GetString(KeyDSN),
		StoreFile:     v.GetString(KeyStoreFile),
		VATDefault:    v.GetFloat64(KeyVATDefault),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFile:       v.GetString(KeyLogFile),
		LogMaxSizeMB:  v.GetInt(KeyLogMaxSizeMB),
		LogMaxBackups: v.GetInt(KeyLogMaxBackups),
		DBDebug:       v.GetBool(KeyDBDebug),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.Store {
	case store.KindSQLite, "":
		if c.DBPath == "" {
			return fmt.Errorf("%s is required for the sqlite store", KeyDB)
		}
	case store.KindPostgres:
		if c.DSN == "" {
			return fmt.Errorf("%s is required for the postgres store", KeyDSN)
		}
	case store.KindMemory, "mem":
	case store.KindFile:
		if c.StoreFile == "" {
			return fmt.Errorf("%s is required for the file store", KeyStoreFile)
		}
	default:
		return fmt.Errorf("unknown store kind: %s", c.Store)
	}
	if c.VATDefault < 0 || c.VATDefault > 1 {
		return fmt.Errorf("%s must be between 0 and 1, got %v", KeyVATDefault, c.VATDefault)
	}
	if c.LogMaxSizeMB < 0 || c.LogMaxBackups < 0 {
		return fmt.Errorf("log rotation settings must be non-negative")
	}
	return nil
}

// StoreOptions maps the configuration onto store.Options.
func (c Config) StoreOptions() store.Options {
	return store.Options{
		Kind:  c.Store,
		Path:  c.DBPath,
		File:  c.StoreFile,
		DSN:   c.DSN,
		Debug: c.DBDebug,
	}
}
