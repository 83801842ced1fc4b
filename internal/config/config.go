package config

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"` // debug, release, test
}

type StorageConfig struct {
	Backend     string `mapstructure:"backend"` // sqlite or postgres
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type AuthConfig struct {
	JWTSecret  string `mapstructure:"jwt_secret"`
	TokenTTL   int    `mapstructure:"token_ttl_hours"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Log     LogConfig     `mapstructure:"log"`
}

var (
	cfg  *Config
	once sync.Once
)

// Load reads configuration from the given file (default "config.yaml" in the
// working directory) with SLEEPDIARY_* environment overrides, e.g.
// SLEEPDIARY_SERVER_PORT=9000. Safe to call more than once; the first result
// wins.
func Load(path string) (*Config, error) {
	var loadErr error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		v.SetDefault("server.address", "127.0.0.1")
		v.SetDefault("server.port", 8088)
		v.SetDefault("server.mode", "release")
		v.SetDefault("storage.backend", "sqlite")
		v.SetDefault("storage.sqlite_path", "data/sleepdiary.db")
		v.SetDefault("auth.token_ttl_hours", 24)
		v.SetDefault("auth.bcrypt_cost", 12)
		v.SetDefault("log.level", "info")

		v.SetEnvPrefix("SLEEPDIARY")
		v.AutomaticEnv()

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				loadErr = fmt.Errorf("read config: %w", err)
				return
			}
			// no config file is fine, defaults + env apply
		}

		var c Config
		if err := v.Unmarshal(&c); err != nil {
			loadErr = fmt.Errorf("unmarshal config: %w", err)
			return
		}
		if err := c.Validate(); err != nil {
			loadErr = fmt.Errorf("invalid config: %w", err)
			return
		}
		cfg = &c
	})

	if loadErr != nil {
		return nil, loadErr
	}
	if cfg == nil {
		return nil, errors.New("config: Load previously failed")
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required when backend=sqlite")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required when backend=postgres")
		}
	default:
		return errors.New("storage.backend must be sqlite or postgres")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return errors.New("auth.bcrypt_cost must be between 4 and 31")
	}
	return nil
}

// TokenTTLDuration returns the configured token lifetime.
func (c *Config) TokenTTLDuration() time.Duration {
	return time.Duration(c.Auth.TokenTTL) * time.Hour
}
