package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sodematha/mathasvc/internal/domain"
	"github.com/spf13/viper"
)

const EnvPrefix = "MATHASVC"

// SetDefaults registers every known key so that environment variables
// (MATHASVC_STORAGE_BUCKET and so on) are picked up on Unmarshal.
func SetDefaults(v *viper.Viper) {
	dataDir := ".mathasvc"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".mathasvc")
	}

	v.SetDefault("data_dir", dataDir)
	v.SetDefault("cache_dir", "")
	v.SetDefault("catalog_path", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("storage.provider", string(domain.StorageProviderFirebase))
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.base_url", "")
	v.SetDefault("storage.url_ttl", 30*time.Minute)

	v.SetDefault("download.timeout", 10*time.Minute)
	v.SetDefault("download.workers", 3)

	v.SetDefault("auth.mode", string(domain.AuthModeStub))
	v.SetDefault("auth.stub_code", "")
	v.SetDefault("auth.api_key", "")
	v.SetDefault("auth.endpoint", "")
	v.SetDefault("auth.recaptcha_token", "")

	v.SetDefault("discord_webhook_url", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load loads configuration from multiple sources:
// 1. Config file (config.yaml, optional)
// 2. Environment variables (MATHASVC_*)
// 3. Bound command line flags
func Load(v *viper.Viper) (*domain.Config, error) {
	cfg := &domain.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Validate(cfg *domain.Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir is required (set via config.yaml, --data-dir or %s_DATA_DIR)", EnvPrefix)
	}

	switch cfg.Storage.Provider {
	case domain.StorageProviderFirebase:
	case domain.StorageProviderHTTP:
		if cfg.Storage.BaseURL == "" {
			return fmt.Errorf("storage.base_url is required when storage.provider is %q", cfg.Storage.Provider)
		}
	default:
		return fmt.Errorf("invalid storage.provider: %s (must be 'firebase' or 'http')", cfg.Storage.Provider)
	}

	switch cfg.Auth.Mode {
	case domain.AuthModeStub:
	case domain.AuthModeFirebase:
		if cfg.Auth.APIKey == "" {
			return fmt.Errorf("auth.api_key is required when auth.mode is %q (or set %s_AUTH_API_KEY)", cfg.Auth.Mode, EnvPrefix)
		}
	default:
		return fmt.Errorf("invalid auth.mode: %s (must be 'stub' or 'firebase')", cfg.Auth.Mode)
	}

	if cfg.Download.Workers < 1 {
		return fmt.Errorf("download.workers must be at least 1, got %d", cfg.Download.Workers)
	}
	if cfg.Download.Timeout < 0 {
		return fmt.Errorf("download.timeout must not be negative")
	}
	return nil
}
