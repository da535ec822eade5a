package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// writeFile — утилита записи временного файла конфигурации.
func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	return p
}

// chdir — смена текущего рабочего каталога с авто-возвратом.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

const sampleYAML = `
env: "prod"
api:
  base_url: "http://10.0.0.5:8080"
  timeout: "5s"
  user_agent: "simpa-test"
  coalesce_refresh: true
  allowed_role: "teknisi"
store:
  driver: "redis"
  redis_url: "redis://127.0.0.1:6379/0"
  redis_prefix: "t:"
mockapi:
  host: "0.0.0.0"
  port: "9999"
  jwt_secret: "s3cr3t"
  access_ttl: "1m"
  refresh_ttl: "24h"
`

const minimalYAML = `
env: "stage"
`

const brokenYAML = `
env: [unclosed
`

func TestMockAPIConfig_Addr(t *testing.T) {
	t.Parallel()
	cfg := MockAPIConfig{Host: "127.0.0.1", Port: "50095"}
	require.Equal(t, "127.0.0.1:50095", cfg.Addr())
}

func TestLoad_WithExplicitPath_OK(t *testing.T) {
	t.Parallel()

	cfgPath := writeFile(t, t.TempDir(), "config.yaml", sampleYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "http://10.0.0.5:8080", cfg.API.BaseURL)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, "simpa-test", cfg.API.UserAgent)
	require.True(t, cfg.API.CoalesceRefresh)
	require.Equal(t, "teknisi", cfg.API.AllowedRole)

	require.Equal(t, "redis", cfg.Store.Driver)
	require.Equal(t, "redis://127.0.0.1:6379/0", cfg.Store.RedisURL)
	require.Equal(t, "t:", cfg.Store.RedisPrefix)

	require.Equal(t, "0.0.0.0:9999", cfg.MockAPI.Addr())
	require.Equal(t, "s3cr3t", cfg.MockAPI.JWTSecret)
	require.Equal(t, time.Minute, cfg.MockAPI.AccessTTL)
	require.Equal(t, 24*time.Hour, cfg.MockAPI.RefreshTTL)
	require.Equal(t, 5*time.Second, cfg.MockAPI.RequestTimeout)
}

func TestLoad_Defaults(t *testing.T) {
	t.Parallel()

	cfgPath := writeFile(t, t.TempDir(), "min.yaml", minimalYAML)

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "stage", cfg.Env)
	require.Equal(t, "https://simpa.ftiorganizerhub.tech", cfg.API.BaseURL)
	require.Equal(t, 10*time.Second, cfg.API.Timeout)
	require.False(t, cfg.API.CoalesceRefresh)
	require.Equal(t, "file", cfg.Store.Driver)
	require.Equal(t, ".simpa/credentials.json", cfg.Store.Path)
}

func TestLoad_WithExplicitPath_BrokenYAML(t *testing.T) {
	t.Parallel()

	cfgPath := writeFile(t, t.TempDir(), "broken.yaml", brokenYAML)

	_, err := Load(cfgPath)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown_driver", "store: { driver: \"bolt\" }", "unknown store driver"},
		{"redis_without_url", "store: { driver: \"redis\" }", "redis_url is required"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			cfgPath := writeFile(t, t.TempDir(), "bad.yaml", tc.yaml)

			_, err := Load(cfgPath)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_WithCONFIG_PATH_OK(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "from_env_path.yaml", minimalYAML)
	t.Setenv("CONFIG_PATH", cfgPath)

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "stage", cfg.Env)
}

func TestLoad_WithLocalYAML_OK(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, ".", "local.yaml", sampleYAML)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, "http://10.0.0.5:8080", cfg.API.BaseURL)
}

// Явный путь важнее CONFIG_PATH и local.yaml.
func TestLoad_Priority_ExplicitWinsOverEnvAndLocal(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	explicit := writeFile(t, dir, "explicit.yaml", `env: "prod"`)
	t.Setenv("CONFIG_PATH", writeFile(t, dir, "bad.yaml", brokenYAML))
	writeFile(t, ".", "local.yaml", `env: "local"`)

	cfg, err := Load(explicit)
	require.NoError(t, err)
	require.Equal(t, "prod", cfg.Env)
}

func TestLoad_EnvOverlay_OverridesValuesFromFile(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "config.yaml", sampleYAML)

	t.Setenv("API_BASE_URL", "http://override:1")
	t.Setenv("API_TIMEOUT", "7s")
	t.Setenv("STORE_REDIS_PREFIX", "env:")

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	require.Equal(t, "http://override:1", cfg.API.BaseURL)
	require.Equal(t, 7*time.Second, cfg.API.Timeout)
	require.Equal(t, "env:", cfg.Store.RedisPrefix)
}

func TestLoad_EnvOnly_OK(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CONFIG_PATH", "")

	t.Setenv("ENV", "dev")
	t.Setenv("API_BASE_URL", "http://127.0.0.1:50095")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("MOCKAPI_PORT", "1234")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "http://127.0.0.1:50095", cfg.API.BaseURL)
	require.Equal(t, "memory", cfg.Store.Driver)
	require.Equal(t, "1234", cfg.MockAPI.Port)
}

func TestMustLoad_PanicsOnError(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_ = MustLoad(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}
