package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// 既定値
const (
	DefaultSessionSecret = "change-this-secret"

	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	Port      string `env:"PORT" envDefault:"3000"`
	BaseURL   string `env:"BASE_URL"`
	StaticDir string `env:"STATIC_DIR" envDefault:"."`

	// Discord OAuth2
	DiscordClientID     string `env:"DISCORD_CLIENT_ID"`
	DiscordClientSecret string `env:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURI  string `env:"DISCORD_REDIRECT_URI"`

	// Steam
	SteamAPIKey string `env:"STEAM_API_KEY"`

	// プロバイダー呼び出しのタイムアウト。0はタイムアウトなし。
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"0s"`

	// Session
	SessionSecret string `env:"SESSION_SECRET" envDefault:"change-this-secret"`
	SessionMaxAge int    `env:"SESSION_MAX_AGE" envDefault:"86400"`

	// Link store
	LinkStore   string `env:"LINK_STORE" envDefault:"file"`
	LinksFile   string `env:"LINKS_FILE" envDefault:"links.json"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Rate Limit（req/min/IP）
	RateLimitAuth int `env:"RATE_LIMIT_AUTH" envDefault:"30"`

	// リバースプロキシ配下でX-Real-IP/X-Forwarded-ForのクライアントIPを信頼する
	TrustProxy bool `env:"TRUST_PROXY" envDefault:"false"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Cookie（BASE_URLから導出）
	CookieSecure bool `env:"-"`
}

// Load は環境変数からConfigを読み込む。
// PORTに依存する既定値（BASE_URL、DISCORD_REDIRECT_URI）はパース後に補完する。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if cfg.DiscordRedirectURI == "" {
		cfg.DiscordRedirectURI = "http://localhost:" + cfg.Port + "/auth/discord/callback"
	}

	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")

	switch cfg.LinkStore {
	case StoreFile:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when LINK_STORE=%s", StorePostgres)
		}
	default:
		return nil, fmt.Errorf("unsupported LINK_STORE: %q", cfg.LinkStore)
	}

	return cfg, nil
}

// DiscordConfigured はDiscordのクライアント認証情報が揃っているかを返す。
func (c *Config) DiscordConfigured() bool {
	return c.DiscordClientID != "" && c.DiscordClientSecret != ""
}

// UsesDefaultSessionSecret はセッション署名鍵が既定値のままかを返す。
func (c *Config) UsesDefaultSessionSecret() bool {
	return c.SessionSecret == DefaultSessionSecret
}
