package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/catalog"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/clock"
	"github.com/dhooHub/Bot-La-Vaca-sub000/internal/util"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

var weakPINs = []string{"0000", "1234", "1111", "123456"}

type Config struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	PanelPIN           string   `env:"PANEL_PIN"`
	PanelSessionSecret string   `env:"PANEL_SESSION_SECRET" envDefault:"dev-secret-change-me"`
	PanelOrigins       []string `env:"PANEL_ALLOWED_ORIGINS" envSeparator:","`

	StoreName string `env:"STORE_NAME" envDefault:"La Vaca"`
	StoreType string `env:"STORE_TYPE" envDefault:"both"`

	HoursStart     int `env:"HOURS_START" envDefault:"9"`
	HoursEnd       int `env:"HOURS_END" envDefault:"18"`
	HoursEndMinute int `env:"HOURS_END_MINUTE" envDefault:"30"`
	UTCOffsetHours int `env:"UTC_OFFSET_HOURS" envDefault:"-6"`

	DelayMinMS          int `env:"DELAY_MIN_MS" envDefault:"3000"`
	DelayMaxMS          int `env:"DELAY_MAX_MS" envDefault:"7000"`
	SendAttempts        int `env:"SEND_ATTEMPTS" envDefault:"3"`
	SendRetryBackoffMS  int `env:"SEND_RETRY_BACKOFF_MS" envDefault:"2000"`
	SessionTimeoutMin   int `env:"SESSION_TIMEOUT_MINUTES" envDefault:"120"`
	QuoteTTLMin         int `env:"QUOTE_TTL_MINUTES" envDefault:"30"`
	FloodLimitPerMin    int `env:"FLOOD_LIMIT_PER_MIN" envDefault:"20"`
	HistoryRetentionDay int `env:"HISTORY_RETENTION_DAYS" envDefault:"90"`

	GatewayURL    string `env:"GATEWAY_URL" envDefault:"http://localhost:3001"`
	GatewaySecret string `env:"GATEWAY_SECRET"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) DelayMin() time.Duration {
	return time.Duration(c.DelayMinMS) * time.Millisecond
}

func (c *Config) DelayMax() time.Duration {
	return time.Duration(c.DelayMaxMS) * time.Millisecond
}

func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.SendRetryBackoffMS) * time.Millisecond
}

func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMin) * time.Minute
}

func (c *Config) QuoteTTL() time.Duration {
	return time.Duration(c.QuoteTTLMin) * time.Minute
}

// HistoryRetention is zero when archived messages are kept forever.
func (c *Config) HistoryRetention() time.Duration {
	if c.HistoryRetentionDay <= 0 {
		return 0
	}
	return time.Duration(c.HistoryRetentionDay) * 24 * time.Hour
}

func (c *Config) Hours() clock.Hours {
	return clock.Hours{
		OpenHour:    c.HoursStart,
		CloseHour:   c.HoursEnd,
		CloseMinute: c.HoursEndMinute,
		Offset:      time.Duration(c.UTCOffsetHours) * time.Hour,
	}
}

func (c *Config) Store() catalog.StoreType {
	return catalog.StoreType(c.StoreType)
}

// PINIsHashed reports whether PANEL_PIN holds a bcrypt hash instead of the
// plain PIN.
func (c *Config) PINIsHashed() bool {
	return isBcryptHash(c.PanelPIN)
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") ||
		strings.HasPrefix(s, "$2b$") ||
		strings.HasPrefix(s, "$2y$")
}

func (c *Config) Validate() error {
	if c.DelayMinMS < 0 || c.DelayMaxMS < 0 {
		return fmt.Errorf("DELAY_MIN_MS and DELAY_MAX_MS must not be negative")
	}
	if c.DelayMaxMS < c.DelayMinMS {
		return fmt.Errorf("DELAY_MAX_MS (%d) must be >= DELAY_MIN_MS (%d)", c.DelayMaxMS, c.DelayMinMS)
	}
	if c.HoursStart < 0 || c.HoursStart > 23 || c.HoursEnd < 0 || c.HoursEnd > 23 {
		return fmt.Errorf("HOURS_START and HOURS_END must be between 0 and 23")
	}
	if c.HoursEndMinute < 0 || c.HoursEndMinute > 59 {
		return fmt.Errorf("HOURS_END_MINUTE must be between 0 and 59")
	}
	if c.HoursEnd*60+c.HoursEndMinute <= c.HoursStart*60 {
		return fmt.Errorf("store must close after it opens (HOURS_START=%d, HOURS_END=%d:%02d)", c.HoursStart, c.HoursEnd, c.HoursEndMinute)
	}
	if c.UTCOffsetHours < -12 || c.UTCOffsetHours > 14 {
		return fmt.Errorf("UTC_OFFSET_HOURS must be between -12 and 14")
	}
	if !c.Store().Valid() {
		return fmt.Errorf("STORE_TYPE must be one of pickup, shipping, both (got %q)", c.StoreType)
	}
	if c.SendAttempts < 1 {
		return fmt.Errorf("SEND_ATTEMPTS must be at least 1")
	}
	if c.GatewayURL == "" {
		return fmt.Errorf("GATEWAY_URL is required")
	}

	if c.PanelPIN == "" {
		log.Warn().Msg("PANEL_PIN is empty: panel login disabled")
	} else if !c.PINIsHashed() && !util.IsValidPIN(c.PanelPIN) {
		return fmt.Errorf("PANEL_PIN must be %d to %d digits or a bcrypt hash", util.MinPINLength, util.MaxPINLength)
	}

	if c.IsProduction() {
		if err := validateSecret("PANEL_SESSION_SECRET", c.PanelSessionSecret); err != nil {
			return err
		}
		for _, weak := range weakPINs {
			if c.PanelPIN == weak {
				return fmt.Errorf("PANEL_PIN is a known weak PIN; set a stronger one in production")
			}
		}
		if c.GatewaySecret == "" {
			log.Warn().Msg("GATEWAY_SECRET is empty in production: gateway signature verification disabled")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

// Load reads an optional .env file and then parses the environment. Values
// already present in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
