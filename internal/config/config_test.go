package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sodematha/mathasvc/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, domain.StorageProviderFirebase, cfg.Storage.Provider)
	assert.Equal(t, 30*time.Minute, cfg.Storage.URLTTL)
	assert.Equal(t, 3, cfg.Download.Workers)
	assert.Equal(t, domain.AuthModeStub, cfg.Auth.Mode)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/matha
storage:
  provider: http
  base_url: https://mirror.example/audio
  url_ttl: 5m
download:
  workers: 6
`), 0644))

	t.Setenv("MATHASVC_DOWNLOAD_TIMEOUT", "90s")
	t.Setenv("MATHASVC_DISCORD_WEBHOOK_URL", "https://discord.example/hook")

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/srv/matha", cfg.DataDir)
	assert.Equal(t, domain.StorageProviderHTTP, cfg.Storage.Provider)
	assert.Equal(t, "https://mirror.example/audio", cfg.Storage.BaseURL)
	assert.Equal(t, 5*time.Minute, cfg.Storage.URLTTL)
	assert.Equal(t, 6, cfg.Download.Workers)
	assert.Equal(t, 90*time.Second, cfg.Download.Timeout)
	assert.Equal(t, "https://discord.example/hook", cfg.DiscordWebhookURL)
}

func TestValidate(t *testing.T) {
	valid := func() *domain.Config {
		return &domain.Config{
			DataDir:  "/data",
			Storage:  domain.StorageConfig{Provider: domain.StorageProviderFirebase},
			Download: domain.DownloadConfig{Workers: 1},
			Auth:     domain.AuthConfig{Mode: domain.AuthModeStub},
		}
	}
	require.NoError(t, Validate(valid()))

	tests := map[string]func(c *domain.Config){
		"no data dir":       func(c *domain.Config) { c.DataDir = "" },
		"unknown provider":  func(c *domain.Config) { c.Storage.Provider = "s3" },
		"http without base": func(c *domain.Config) { c.Storage.Provider = domain.StorageProviderHTTP },
		"firebase auth key": func(c *domain.Config) { c.Auth.Mode = domain.AuthModeFirebase },
		"unknown auth":      func(c *domain.Config) { c.Auth.Mode = "sms" },
		"zero workers":      func(c *domain.Config) { c.Download.Workers = 0 },
		"negative timeout":  func(c *domain.Config) { c.Download.Timeout = -time.Second },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			assert.Error(t, Validate(c))
		})
	}
}
