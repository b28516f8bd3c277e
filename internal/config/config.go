package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const localBaseURL = "http://localhost:8501"

type Config struct {
	Port           string
	BaseURL        string
	DatabaseURL    string
	RedisURL       string
	LogFile        string
	SessionTTL     time.Duration
	MigrationsDir  string
	Email          EmailConfig
	OAuth          OAuthConfig
	TrustedProxies []string
}

type EmailConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	From       string
	AdminEmail string
	Secure     bool
}

func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.Port != 0 && e.From != ""
}

type OAuthConfig struct {
	Google OAuthProvider
}

type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (p OAuthProvider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

func Load() (Config, error) {
	clean := func(val string) string {
		return strings.Trim(val, "\"' \t\r\n")
	}

	rawPort := strings.Trim(getenvDefault("EMAIL_SERVER_PORT", "587"), "\"' ")
	emailPort, err := strconv.Atoi(rawPort)
	if err != nil {
		emailPort = 587
	}

	cfg := Config{
		Port:           getenvDefault("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       getenvDefault("REDIS_URL", "redis://localhost:6379"),
		LogFile:        getenvDefault("LOG_FILE", "logs/server.log"),
		SessionTTL:     7 * 24 * time.Hour,
		MigrationsDir:  getenvDefault("MIGRATIONS_DIR", "migrations"),
		TrustedProxies: parseList(os.Getenv("TRUSTED_PROXIES")),
	}

	// Resolution order: explicit override, platform-provided service URL
	// when running on managed hosting, local-development default. The URL
	// is never derived from a hosting naming pattern; when nothing is
	// configured we log loudly and use the dev default.
	cfg.BaseURL = firstNonEmpty(os.Getenv("APP_BASE_URL"), os.Getenv("PLATFORM_SERVICE_URL"))
	if cfg.BaseURL == "" {
		log.Printf("config: no APP_BASE_URL or PLATFORM_SERVICE_URL set, using %s (development only)", localBaseURL)
		cfg.BaseURL = localBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	cfg.Email = EmailConfig{
		Host:       clean(getenvDefault("EMAIL_SERVER_HOST", "smtp.gmail.com")),
		Port:       emailPort,
		Username:   clean(os.Getenv("EMAIL_SERVER_USER")),
		Password:   clean(os.Getenv("EMAIL_SERVER_PASSWORD")),
		From:       clean(os.Getenv("EMAIL_FROM")),
		AdminEmail: clean(os.Getenv("ADMIN_NOTIFICATION_EMAIL")),
		Secure:     parseBool(os.Getenv("EMAIL_SERVER_SECURE")),
	}

	cfg.OAuth = OAuthConfig{
		Google: OAuthProvider{
			ClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("GOOGLE_OAUTH_REDIRECT_URI"),
		},
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	// Redirect URIs registered with the provider must match exactly, so a
	// guessed one only produces confusing provider-side errors.
	if cfg.OAuth.Google.Enabled() && cfg.OAuth.Google.RedirectURL == "" {
		return Config{}, fmt.Errorf("GOOGLE_OAUTH_REDIRECT_URI is required when Google OAuth is configured")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseBool(val string) bool {
	if val == "" {
		return false
	}
	val = strings.ToLower(strings.Trim(val, "\"' "))
	return val == "1" || val == "true" || val == "yes"
}

func parseList(val string) []string {
	parts := strings.Split(val, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
