package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	appLog "sessioncal/internal/log"
	"sessioncal/internal/model"
	"sessioncal/internal/persist"
)

// EnvPrefix prefixes environment overrides, e.g. SESSIONCAL_LISTEN or
// SESSIONCAL_BASIC_AUTH_USERNAME.
const EnvPrefix = "SESSIONCAL"

// DefaultPath is used when no -config flag is given.
const DefaultPath = "./sessioncal.yaml"

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

// BasicAuthConfig enables HTTP Basic Auth on everything except /health when
// both fields are set. PasswordHash is an Argon2id hash from
// `sessioncal hash-password`.
type BasicAuthConfig struct {
	Username     string `yaml:"username" mapstructure:"username" json:"username"`
	PasswordHash string `yaml:"password_hash" mapstructure:"password_hash" json:"-"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API and print view.
	Listen string `yaml:"listen" mapstructure:"listen" json:"listen"`

	// DataDir holds the slot files (file storage) and derived defaults.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir" json:"data_dir"`

	// Storage selects the slot backend: "file" or "sqlite".
	Storage    string `yaml:"storage" mapstructure:"storage" json:"storage"`
	SQLitePath string `yaml:"sqlite_path" mapstructure:"sqlite_path" json:"sqlite_path"`

	// BackupCron is a standard 5-field cron spec. Empty disables backups.
	BackupCron string `yaml:"backup_cron" mapstructure:"backup_cron" json:"backup_cron"`
	BackupDir  string `yaml:"backup_dir" mapstructure:"backup_dir" json:"backup_dir"`
	// BackupKeep is the number of snapshots kept per slot; 0 keeps all.
	BackupKeep int `yaml:"backup_keep" mapstructure:"backup_keep" json:"backup_keep"`

	LogLevel     string `yaml:"log_level" mapstructure:"log_level" json:"log_level"`
	DefaultColor string `yaml:"default_color" mapstructure:"default_color" json:"default_color"`

	BasicAuth BasicAuthConfig `yaml:"basic_auth" mapstructure:"basic_auth" json:"basic_auth"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	cfg := &Config{
		Listen:       "127.0.0.1:8080",
		DataDir:      "./data",
		Storage:      StorageFile,
		BackupCron:   "0 3 * * *",
		BackupKeep:   14,
		LogLevel:     "info",
		DefaultColor: model.DefaultColor,
	}
	cfg.Normalize()
	return cfg
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Normalize fills in missing values and coerces unknown enums so partially
// filled configs still behave. BackupCron is left alone: empty means off.
func (c *Config) Normalize() {
	c.Listen = strings.TrimSpace(c.Listen)
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}

	switch strings.ToLower(strings.TrimSpace(c.Storage)) {
	case StorageSQLite:
		c.Storage = StorageSQLite
	case StorageFile:
		c.Storage = StorageFile
	default:
		if c.Storage != "" {
			appLog.Warn("config: unknown storage, using file", "storage", c.Storage)
		}
		c.Storage = StorageFile
	}
	if c.SQLitePath == "" {
		c.SQLitePath = filepath.Join(c.DataDir, "sessioncal.db")
	}

	c.BackupCron = strings.TrimSpace(c.BackupCron)
	if c.BackupDir == "" {
		c.BackupDir = filepath.Join(c.DataDir, "backup")
	}
	if c.BackupKeep < 0 {
		c.BackupKeep = 14
	}

	c.LogLevel = strings.ToLower(string(appLog.ParseLevel(c.LogLevel)))
	if !hexColor.MatchString(c.DefaultColor) {
		c.DefaultColor = model.DefaultColor
	}
}

// Load reads the YAML file at path with environment overrides.
//
// If the file does not exist, a default config is written there first
// (parent dir 0700, file 0600). Values missing from the file take their
// defaults; SESSIONCAL_* variables win over both.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		appLog.Info("config: writing defaults", "path", path)
		if err := Save(path, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("config: first run: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.Normalize()
	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	d := DefaultConfig()
	v.SetDefault("listen", d.Listen)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("storage", d.Storage)
	v.SetDefault("sqlite_path", "")
	v.SetDefault("backup_cron", d.BackupCron)
	v.SetDefault("backup_dir", "")
	v.SetDefault("backup_keep", d.BackupKeep)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("default_color", d.DefaultColor)
	v.SetDefault("basic_auth.username", "")
	v.SetDefault("basic_auth.password_hash", "")
	return v
}

// Save writes cfg to path as YAML, atomically and with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return persist.WriteFileAtomic(path, data)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

// AuthEnabled reports whether both basic auth fields are set.
func (c *Config) AuthEnabled() bool {
	return c.BasicAuth.Username != "" && c.BasicAuth.PasswordHash != ""
}
