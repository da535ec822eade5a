// config - источник загрузки конфигурации SIMPA-клиента и mock API.
//
// Источники (по убыванию приоритета):
//  1. явный путь --config;
//  2. CONFIG_PATH;
//  3. ./local.yaml;
//  4. только ENV (cleanenv).
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string        `yaml:"env" env:"ENV" env-default:"local"`
	API     APIConfig     `yaml:"api"`
	Store   StoreConfig   `yaml:"store"`
	MockAPI MockAPIConfig `yaml:"mockapi"`
}

// APIConfig — параметры клиента удалённого SIMPA API.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"   env:"API_BASE_URL"   env-default:"https://simpa.ftiorganizerhub.tech"`
	Timeout   time.Duration `yaml:"timeout"    env:"API_TIMEOUT"    env-default:"10s"`
	UserAgent string        `yaml:"user_agent" env:"API_USER_AGENT" env-default:"simpa-client"`
	// CoalesceRefresh — объединять конкурентные refresh в один вызов.
	CoalesceRefresh bool `yaml:"coalesce_refresh" env:"API_COALESCE_REFRESH" env-default:"false"`
	// AllowedRole — единственная роль, которой разрешён вход.
	AllowedRole string `yaml:"allowed_role" env:"API_ALLOWED_ROLE" env-default:"teknisi"`
}

// StoreConfig — хранилище учётных данных (токенов).
//
// Driver: file | redis | memory.
type StoreConfig struct {
	Driver      string `yaml:"driver"       env:"STORE_DRIVER"       env-default:"file"`
	Path        string `yaml:"path"         env:"STORE_PATH"         env-default:".simpa/credentials.json"`
	RedisURL    string `yaml:"redis_url"    env:"STORE_REDIS_URL"`
	RedisPrefix string `yaml:"redis_prefix" env:"STORE_REDIS_PREFIX" env-default:"simpa:"`
}

// MockAPIConfig — локальный фейковый бэкенд для разработки и тестов.
type MockAPIConfig struct {
	Host       string        `yaml:"host"        env:"MOCKAPI_HOST"        env-default:"127.0.0.1"`
	Port       string        `yaml:"port"        env:"MOCKAPI_PORT"        env-default:"50095"`
	JWTSecret  string        `yaml:"jwt_secret"  env:"MOCKAPI_JWT_SECRET"  env-default:"dev-secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"  env:"MOCKAPI_ACCESS_TTL"  env-default:"15m"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"MOCKAPI_REFRESH_TTL" env-default:"720h"`
	// RequestTimeout — дедлайн обработки одного запроса.
	RequestTimeout time.Duration `yaml:"request_timeout" env:"MOCKAPI_REQUEST_TIMEOUT" env-default:"5s"`
}

func (m MockAPIConfig) Addr() string { return net.JoinHostPort(m.Host, m.Port) }

// MustLoad — паника при ошибке загрузки.
func MustLoad(path string) *Config {
	cfg, err := Load(path)

	if err != nil {
		panic(err)
	}

	return cfg
}

func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("invalid config %q: %w", p, err)
		}

		return &cfg, nil
	}

	// 1) --config
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) только ENV
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// validate проверяет значения, которые cleanenv не умеет проверить сам.
func (c *Config) validate() error {
	switch c.Store.Driver {
	case "file", "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for redis driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	return nil
}
