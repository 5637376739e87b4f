package domain

import "time"

// StorageProvider selects the remote object resolver
type StorageProvider string

const (
	// StorageProviderFirebase - Firebase Storage REST metadata lookup with download tokens
	StorageProviderFirebase StorageProvider = "firebase"
	// StorageProviderHTTP - Static base URL joined with the object key
	StorageProviderHTTP StorageProvider = "http"
)

// AuthMode selects the identity provider
type AuthMode string

const (
	// AuthModeStub - Fixed-code provider for development builds
	AuthModeStub AuthMode = "stub"
	// AuthModeFirebase - Firebase Identity Toolkit phone sign-in
	AuthModeFirebase AuthMode = "firebase"
)

type StorageConfig struct {
	Provider StorageProvider `mapstructure:"provider"`
	Bucket   string          `mapstructure:"bucket"`
	Endpoint string          `mapstructure:"endpoint"`
	BaseURL  string          `mapstructure:"base_url"`
	URLTTL   time.Duration   `mapstructure:"url_ttl"`
}

type DownloadConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	Workers int           `mapstructure:"workers"`
}

type AuthConfig struct {
	Mode           AuthMode `mapstructure:"mode"`
	StubCode       string   `mapstructure:"stub_code"`
	APIKey         string   `mapstructure:"api_key"`
	Endpoint       string   `mapstructure:"endpoint"`
	RecaptchaToken string   `mapstructure:"recaptcha_token"`
}

type Config struct {
	DataDir           string         `mapstructure:"data_dir"`
	CacheDir          string         `mapstructure:"cache_dir"`
	CatalogPath       string         `mapstructure:"catalog_path"`
	LogLevel          string         `mapstructure:"log_level"`
	Storage           StorageConfig  `mapstructure:"storage"`
	Download          DownloadConfig `mapstructure:"download"`
	Auth              AuthConfig     `mapstructure:"auth"`
	DiscordWebhookURL string         `mapstructure:"discord_webhook_url"`
}
