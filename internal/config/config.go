// Package config resolves runtime settings from defaults, an optional YAML
// file, an optional .env file and the environment, in increasing priority.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "GRADEBOOK"

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

var Drivers = []string{DriverSQLite, DriverRedis, DriverMemory}

type HTTP struct {
	Port            string        `mapstructure:"port"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
}

type Storage struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
	RedisAddr  string `mapstructure:"redis_addr"`
	Key        string `mapstructure:"key"`
}

type Config struct {
	LogLevel string  `mapstructure:"log_level"`
	HTTP     HTTP    `mapstructure:"http"`
	Storage  Storage `mapstructure:"storage"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.HTTP.Port
}

// Validate rejects settings the rest of the program cannot start with.
func (c *Config) Validate() error {
	known := false
	for _, d := range Drivers {
		if c.Storage.Driver == d {
			known = true
			break
		}
	}
	if !known {
		return errors.Errorf("unknown storage driver %q (want one of %s)", c.Storage.Driver, strings.Join(Drivers, ", "))
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("storage key must not be empty")
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.SQLitePath == "" {
		return errors.New("sqlite path must not be empty")
	}
	if c.Storage.Driver == DriverRedis && c.Storage.RedisAddr == "" {
		return errors.New("redis address must not be empty")
	}
	if c.HTTP.Port == "" {
		return errors.New("http port must not be empty")
	}
	return nil
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("log_level", "debug")
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.max_body_size", int64(2_100_000))
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("http.cors_origin", "*")
	v.SetDefault("storage.driver", DriverSQLite)
	v.SetDefault("storage.sqlite_path", "./gradebook.db")
	v.SetDefault("storage.redis_addr", "localhost:6379")
	v.SetDefault("storage.key", "students")

	// GRADEBOOK_HTTP_PORT etc. win over the unprefixed names below.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("http.port", "PORT")
	_ = v.BindEnv("storage.sqlite_path", "SQLITE_PATH")
	_ = v.BindEnv("storage.redis_addr", "REDIS_ADDR")
	return v
}

// LoadDotEnv loads path into the process environment if it exists.
// Variables already set are not overridden.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "config.os.Stat(%s)", path)
	}
	return errors.Wrapf(godotenv.Load(path), "config.godotenv(%s)", path)
}

// Load reads configFile (if set) into v and decodes the result.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", configFile)
		}
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
