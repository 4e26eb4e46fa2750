package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for every environment variable the service reads,
// e.g. COURSECAST_CLIENT_ID maps to the client_id key.
const EnvPrefix = "COURSECAST_"

// Config holds the full service configuration. All values are supplied via
// COURSECAST_* environment variables layered over the defaults below.
type Config struct {
	ListenAddr string `koanf:"listen_addr"`
	DataDir    string `koanf:"data_dir"`
	LogLevel   string `koanf:"log_level"`
	LogFormat  string `koanf:"log_format"`

	// OwnerID is the single tenant every credential operation acts for.
	OwnerID string `koanf:"owner_id"`

	// APIKey authenticates read-only catalog queries.
	APIKey string `koanf:"api_key"`

	// OAuth client settings for delegated uploads.
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURI  string `koanf:"redirect_uri"`

	// FallbackRefreshToken is used when no per-owner token has been stored,
	// so a single-tenant deployment can upload without interactive consent.
	FallbackRefreshToken string `koanf:"fallback_refresh_token"`
}

func defaultConfig() *Config {
	return &Config{
		ListenAddr: "127.0.0.1:1348",
		DataDir:    os.ExpandEnv("$HOME/.coursecast"),
		LogLevel:   "info",
		LogFormat:  "json",
		OwnerID:    "owner",
	}
}

// Load builds the configuration from defaults overlaid with COURSECAST_*
// environment variables.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// ValidateUpload checks the settings the write path cannot work without.
// Read-only deployments may leave them empty.
func (c *Config) ValidateUpload() error {
	if c.ClientID == "" || c.ClientSecret == "" || c.RedirectURI == "" {
		return fmt.Errorf("client_id, client_secret and redirect_uri must be set for uploads")
	}
	return nil
}
