package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "lubricentro"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Local store backends selectable via LUBRICENTRO_STORE_DRIVER.
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

type Config struct {
	App    AppConfig
	Store  StoreConfig
	Redis  RedisConfig
	Remote RemoteConfig
	Sync   SyncConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Store.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LUBRICENTRO_APP_ENV" default:"dev"`
	Port         string `envconfig:"LUBRICENTRO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LUBRICENTRO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LUBRICENTRO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type StoreConfig struct {
	Driver     string `envconfig:"LUBRICENTRO_STORE_DRIVER" default:"sqlite"`
	SQLitePath string `envconfig:"LUBRICENTRO_STORE_SQLITE_PATH" default:"lubricentro.db"`
}

func (s StoreConfig) validate() error {
	switch s.Driver {
	case StoreDriverSQLite, StoreDriverRedis, StoreDriverMemory:
		return nil
	}
	return fmt.Errorf("unknown store driver %q", s.Driver)
}

type RedisConfig struct {
	URL          string        `envconfig:"LUBRICENTRO_REDIS_URL"`
	Address      string        `envconfig:"LUBRICENTRO_REDIS_ADDR"`
	Password     string        `envconfig:"LUBRICENTRO_REDIS_PASSWORD"`
	DB           int           `envconfig:"LUBRICENTRO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LUBRICENTRO_REDIS_POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"LUBRICENTRO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LUBRICENTRO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LUBRICENTRO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type RemoteConfig struct {
	BaseURL        string        `envconfig:"LUBRICENTRO_REMOTE_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"LUBRICENTRO_REMOTE_TIMEOUT" default:"10s"`
}

type SyncConfig struct {
	ProbeInterval time.Duration `envconfig:"LUBRICENTRO_SYNC_PROBE_INTERVAL" default:"30s"`
	AutoSync      bool          `envconfig:"LUBRICENTRO_SYNC_AUTO" default:"true"`
}
