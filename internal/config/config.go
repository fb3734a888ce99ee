package config

import (
	"errors"
	"strings"
	"time"

	"github.com/ironpulse/clubsite/internal/utils"
)

// Config holds all application configuration. It is built once at startup and
// passed explicitly to the components that need it.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Admin    AdminConfig
	CRM      CRMConfig
	Telegram TelegramConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr           string
	Env            string
	Commit         string
	BuildTime      string
	StaticDir      string
	RequestTimeout time.Duration
	AllowedOrigins []string
}

// StorageConfig points at the SQLite database and its bootstrap inputs.
type StorageConfig struct {
	SQLitePath    string
	MigrationsDir string
	SiteSeedPath  string
}

// AdminConfig configures the shared-secret admin login.
type AdminConfig struct {
	Password     string
	PasswordHash string
	JWTSecret    string
	SessionTTL   time.Duration
	CookieSecure bool
}

// CRMConfig configures lead forwarding. Empty URL disables it.
type CRMConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// TelegramConfig configures lead notifications. Empty token disables them.
type TelegramConfig struct {
	Token   string
	ChatID  int64
	Timeout time.Duration
}

// Load reads configuration from environment variables with development defaults.
func Load() (*Config, error) {
	env := utils.SafeEnv("CLUBSITE_ENV", "development")
	cfg := &Config{
		Server: ServerConfig{
			Addr:           utils.SafeEnv("CLUBSITE_ADDR", ":8080"),
			Env:            env,
			Commit:         utils.SafeEnv("CLUBSITE_COMMIT", ""),
			BuildTime:      utils.SafeEnv("CLUBSITE_BUILD_TIME", ""),
			StaticDir:      utils.SafeEnv("CLUBSITE_STATIC_DIR", ""),
			RequestTimeout: utils.EnvDuration("CLUBSITE_REQUEST_TIMEOUT", 10*time.Second),
			AllowedOrigins: utils.EnvList("CLUBSITE_ALLOWED_ORIGINS", nil),
		},
		Storage: StorageConfig{
			SQLitePath:    utils.SafeEnv("CLUBSITE_SQLITE_PATH", "./data/clubsite.db"),
			MigrationsDir: utils.SafeEnv("CLUBSITE_MIGRATIONS_DIR", ""),
			SiteSeedPath:  utils.SafeEnv("CLUBSITE_SITE_SEED", ""),
		},
		Admin: AdminConfig{
			Password:     utils.SafeEnv("CLUBSITE_ADMIN_PASSWORD", ""),
			PasswordHash: utils.SafeEnv("CLUBSITE_ADMIN_PASSWORD_HASH", ""),
			JWTSecret:    utils.SafeEnv("CLUBSITE_JWT_SECRET", ""),
			SessionTTL:   utils.EnvDuration("CLUBSITE_SESSION_TTL", 7*24*time.Hour),
			CookieSecure: utils.EnvBool("CLUBSITE_COOKIE_SECURE", env == "production"),
		},
		CRM: CRMConfig{
			URL:     utils.SafeEnv("CLUBSITE_CRM_URL", ""),
			Token:   utils.SafeEnv("CLUBSITE_CRM_TOKEN", ""),
			Timeout: utils.EnvDuration("CLUBSITE_CRM_TIMEOUT", 5*time.Second),
		},
		Telegram: TelegramConfig{
			Token:   utils.SafeEnv("CLUBSITE_TELEGRAM_TOKEN", ""),
			ChatID:  utils.EnvInt64("CLUBSITE_TELEGRAM_CHAT_ID", 0),
			Timeout: utils.EnvDuration("CLUBSITE_TELEGRAM_TIMEOUT", 5*time.Second),
		},
	}
	if cfg.Admin.JWTSecret == "" && !cfg.IsProduction() {
		cfg.Admin.JWTSecret = "clubsite-dev-secret"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production") || strings.EqualFold(c.Server.Env, "prod")
}

// Validate rejects configurations that would leave the admin panel open or
// unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.Admin.Password == "" && c.Admin.PasswordHash == "" {
		errs = append(errs, errors.New("CLUBSITE_ADMIN_PASSWORD or CLUBSITE_ADMIN_PASSWORD_HASH is required"))
	}
	if c.Admin.JWTSecret == "" {
		errs = append(errs, errors.New("CLUBSITE_JWT_SECRET is required"))
	}
	if c.IsProduction() && len(c.Admin.JWTSecret) < 32 {
		errs = append(errs, errors.New("CLUBSITE_JWT_SECRET must be at least 32 bytes in production"))
	}
	if c.IsProduction() && c.Admin.Password != "" && c.Admin.PasswordHash == "" {
		errs = append(errs, errors.New("use CLUBSITE_ADMIN_PASSWORD_HASH instead of a plain password in production"))
	}
	if c.Admin.SessionTTL <= 0 {
		errs = append(errs, errors.New("CLUBSITE_SESSION_TTL must be positive"))
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		errs = append(errs, errors.New("CLUBSITE_TELEGRAM_CHAT_ID is required when CLUBSITE_TELEGRAM_TOKEN is set"))
	}
	return errors.Join(errs...)
}
