package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/daily-briefing/pkg/util"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	Timezone string         `yaml:"timezone"`
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Slots    SlotsConfig    `yaml:"slots"`
	Output   OutputConfig   `yaml:"output"`
	Weather  WeatherConfig  `yaml:"weather"`
	News     NewsConfig     `yaml:"news"`
	CVE      CVEConfig      `yaml:"cve"`
	Wardrobe WardrobeConfig `yaml:"wardrobe"`
	Briefing BriefingConfig `yaml:"briefing"`
	Store    StoreConfig    `yaml:"store"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Mail     MailConfig     `yaml:"mail"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address      string          `yaml:"address"`
	ReadTimeout  time.Duration   `yaml:"readTimeout"`
	WriteTimeout time.Duration   `yaml:"writeTimeout"`
	RateLimit    RateLimitConfig `yaml:"rateLimit"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures retries of idempotent outbound requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
}

// AuthConfig controls operator token issuance for the admin API.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwtSecret"`
	Issuer    string        `yaml:"issuer"`
	TokenTTL  time.Duration `yaml:"tokenTtl"`
}

// SlotsConfig sets the wall clock times of the two daily briefings.
type SlotsConfig struct {
	Morning string `yaml:"morning"`
	Midday  string `yaml:"midday"`
}

// OutputConfig points at the dated snapshot directory.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// WeatherConfig contains National Weather Service settings.
type WeatherConfig struct {
	URL       string        `yaml:"url"`
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
	Retry     RetryConfig   `yaml:"retry"`
}

// NewsConfig lists the feeds scanned for the news section.
type NewsConfig struct {
	Topic    string        `yaml:"topic"`
	URLs     []string      `yaml:"urls"`
	Keywords []string      `yaml:"keywords"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
}

// CVEConfig contains NVD query settings.
type CVEConfig struct {
	URL       string        `yaml:"url"`
	APIKey    string        `yaml:"apiKey"`
	Endpoints []string      `yaml:"endpoints"`
	Keywords  []string      `yaml:"keywords"`
	Timeout   time.Duration `yaml:"timeout"`
	Retry     RetryConfig   `yaml:"retry"`
}

// WardrobeConfig points at the rule files and scheduling knobs.
type WardrobeConfig struct {
	RulesPath     string   `yaml:"rulesPath"`
	DaysOffPath   string   `yaml:"daysOffPath"`
	GenerationDay string   `yaml:"generationDay"`
	Workdays      []string `yaml:"workdays"`
	PriorityOrder string   `yaml:"priorityOrder"`
	Seed          uint64   `yaml:"seed"`
}

// BriefingConfig controls the composed email run.
type BriefingConfig struct {
	CleanupDay string `yaml:"cleanupDay"`
}

// StoreConfig selects the schedule persistence backend.
type StoreConfig struct {
	Driver   string         `yaml:"driver"`
	Dir      string         `yaml:"dir"`
	Valkey   ValkeyConfig   `yaml:"valkey"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// ValkeyConfig contains connection information for cache storage.
type ValkeyConfig struct {
	Addr   string        `yaml:"addr"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// ArchiveConfig selects where sent emails are kept.
type ArchiveConfig struct {
	Driver string   `yaml:"driver"`
	Dir    string   `yaml:"dir"`
	R2     R2Config `yaml:"r2"`
}

// R2Config configures the S3 compatible archive bucket.
type R2Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
}

// MailConfig controls SMTP delivery.
type MailConfig struct {
	Mode            string        `yaml:"mode"`
	Auth            string        `yaml:"auth"`
	CredentialsPath string        `yaml:"credentialsPath"`
	KeyPath         string        `yaml:"keyPath"`
	Timeout         time.Duration `yaml:"timeout"`
	OAuth           OAuthConfig   `yaml:"oauth"`
}

// OAuthConfig holds the refresh token flow used for XOAUTH2.
type OAuthConfig struct {
	ClientID     string `yaml:"clientId"`
	ClientSecret string `yaml:"clientSecret"`
	RefreshToken string `yaml:"refreshToken"`
}

// Load reads configuration from a YAML file and environment variables.
func Load() (*Config, error) {
	if path := os.Getenv("DOTENV_PATH"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load dotenv file: %w", err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("load dotenv file: %w", err)
		}
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BRIEFING_TIMEZONE"); v != "" {
		cfg.Timezone = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_ENABLED"); v != "" {
		cfg.HTTP.RateLimit.Enabled = parseBool(v)
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_RPM"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.RequestsPerMinute = parsed
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT_BURST"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.HTTP.RateLimit.Burst = parsed
		}
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Auth.TokenTTL = parsed
		}
	}
	if v := os.Getenv("OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("NWS_URL"); v != "" {
		cfg.Weather.URL = v
	}
	if v := os.Getenv("NWS_USER_AGENT"); v != "" {
		cfg.Weather.UserAgent = v
	}
	if v := os.Getenv("NVD_API_KEY"); v != "" {
		cfg.CVE.APIKey = v
	}
	if v := os.Getenv("WARDROBE_RULES_PATH"); v != "" {
		cfg.Wardrobe.RulesPath = v
	}
	if v := os.Getenv("WARDROBE_DAYS_OFF_PATH"); v != "" {
		cfg.Wardrobe.DaysOffPath = v
	}
	if v := os.Getenv("WARDROBE_SEED"); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Wardrobe.Seed = parsed
		}
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("STORE_VALKEY_ADDR"); v != "" {
		cfg.Store.Valkey.Addr = v
	}
	if v := os.Getenv("STORE_POSTGRES_DSN"); v != "" {
		cfg.Store.Postgres.DSN = v
	}
	if v := os.Getenv("STORE_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Store.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("ARCHIVE_DRIVER"); v != "" {
		cfg.Archive.Driver = v
	}
	if v := os.Getenv("R2_ENDPOINT"); v != "" {
		cfg.Archive.R2.Endpoint = v
	}
	if v := os.Getenv("R2_ACCESS_KEY"); v != "" {
		cfg.Archive.R2.AccessKey = v
	}
	if v := os.Getenv("R2_SECRET_KEY"); v != "" {
		cfg.Archive.R2.SecretKey = v
	}
	if v := os.Getenv("R2_BUCKET"); v != "" {
		cfg.Archive.R2.Bucket = v
	}
	if v := os.Getenv("MAIL_MODE"); v != "" {
		cfg.Mail.Mode = v
	}
	if v := os.Getenv("MAIL_AUTH"); v != "" {
		cfg.Mail.Auth = v
	}
	if v := os.Getenv("MAIL_CREDENTIALS_PATH"); v != "" {
		cfg.Mail.CredentialsPath = v
	}
	if v := os.Getenv("MAIL_KEY_PATH"); v != "" {
		cfg.Mail.KeyPath = v
	}
	if v := os.Getenv("MAIL_OAUTH_CLIENT_ID"); v != "" {
		cfg.Mail.OAuth.ClientID = v
	}
	if v := os.Getenv("MAIL_OAUTH_CLIENT_SECRET"); v != "" {
		cfg.Mail.OAuth.ClientSecret = v
	}
	if v := os.Getenv("MAIL_OAUTH_REFRESH_TOKEN"); v != "" {
		cfg.Mail.OAuth.RefreshToken = v
	}
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

func defaultConfig() *Config {
	return &Config{
		Timezone: "Local",
		HTTP: HTTPConfig{
			Address:      ":8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
		},
		Auth: AuthConfig{
			Issuer:   "daily-briefing",
			TokenTTL: 24 * time.Hour,
		},
		Slots: SlotsConfig{
			Morning: "06:00",
			Midday:  "12:00",
		},
		Output: OutputConfig{Dir: "output"},
		Weather: WeatherConfig{
			URL:       "https://api.weather.gov/gridpoints/TOP/31,80/forecast",
			UserAgent: "daily-briefing (ops@example.com)",
			Timeout:   10 * time.Second,
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 500 * time.Millisecond,
			},
		},
		News: NewsConfig{
			Topic:   "cyber",
			Timeout: 15 * time.Second,
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 2,
				BaseBackoff: 500 * time.Millisecond,
			},
		},
		CVE: CVEConfig{
			URL:       "https://services.nvd.nist.gov/rest/json/cves/2.0",
			Endpoints: []string{"pub", "lastMod"},
			Timeout:   30 * time.Second,
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: time.Second,
			},
		},
		Wardrobe: WardrobeConfig{
			RulesPath:     "configs/wardrobe.yaml",
			DaysOffPath:   "configs/days_off.yaml",
			GenerationDay: "Sunday",
			Workdays:      []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
			PriorityOrder: "ascending",
		},
		Briefing: BriefingConfig{CleanupDay: "Saturday"},
		Store: StoreConfig{
			Driver: "file",
			Dir:    "output/wardrobe",
			Valkey: ValkeyConfig{
				Prefix: "briefing",
				TTL:    14 * 24 * time.Hour,
			},
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Archive: ArchiveConfig{
			Driver: "local",
			Dir:    "output/alerts",
		},
		Mail: MailConfig{
			Mode:            "mock",
			Auth:            "plain",
			CredentialsPath: "configs/smtp.sealed",
			KeyPath:         "configs/smtp.key",
			Timeout:         30 * time.Second,
		},
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.tokenTtl must be positive")
	}
	if _, err := ParseClock(c.Slots.Morning); err != nil {
		return fmt.Errorf("slots.morning: %w", err)
	}
	if _, err := ParseClock(c.Slots.Midday); err != nil {
		return fmt.Errorf("slots.midday: %w", err)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output.dir cannot be empty")
	}
	if strings.TrimSpace(c.Weather.URL) == "" {
		return errors.New("weather.url cannot be empty")
	}
	if strings.TrimSpace(c.Weather.UserAgent) == "" {
		return errors.New("weather.userAgent cannot be empty")
	}
	if err := c.Weather.Retry.validate("weather.retry"); err != nil {
		return err
	}
	if strings.TrimSpace(c.News.Topic) == "" {
		return errors.New("news.topic cannot be empty")
	}
	if err := c.News.Retry.validate("news.retry"); err != nil {
		return err
	}
	if strings.TrimSpace(c.CVE.URL) == "" {
		return errors.New("cve.url cannot be empty")
	}
	if err := c.CVE.Retry.validate("cve.retry"); err != nil {
		return err
	}
	if strings.TrimSpace(c.Wardrobe.RulesPath) == "" {
		return errors.New("wardrobe.rulesPath cannot be empty")
	}
	if _, ok := util.ParseWeekday(c.Wardrobe.GenerationDay); !ok {
		return fmt.Errorf("wardrobe.generationDay %q is not a weekday", c.Wardrobe.GenerationDay)
	}
	for _, d := range c.Wardrobe.Workdays {
		if _, ok := util.ParseWeekday(d); !ok {
			return fmt.Errorf("wardrobe.workdays entry %q is not a weekday", d)
		}
	}
	switch c.Wardrobe.PriorityOrder {
	case "ascending", "descending":
	default:
		return fmt.Errorf("wardrobe.priorityOrder must be ascending or descending, got %q", c.Wardrobe.PriorityOrder)
	}
	if _, ok := util.ParseWeekday(c.Briefing.CleanupDay); !ok {
		return fmt.Errorf("briefing.cleanupDay %q is not a weekday", c.Briefing.CleanupDay)
	}
	switch c.Store.Driver {
	case "file":
		if strings.TrimSpace(c.Store.Dir) == "" {
			return errors.New("store.dir cannot be empty for the file driver")
		}
	case "memory":
	case "valkey":
		if strings.TrimSpace(c.Store.Valkey.Addr) == "" {
			return errors.New("store.valkey.addr cannot be empty for the valkey driver")
		}
	case "postgres":
		if strings.TrimSpace(c.Store.Postgres.DSN) == "" {
			return errors.New("store.postgres.dsn cannot be empty for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	switch c.Archive.Driver {
	case "local":
		if strings.TrimSpace(c.Archive.Dir) == "" {
			return errors.New("archive.dir cannot be empty for the local driver")
		}
	case "r2":
		if c.Archive.R2.Endpoint == "" || c.Archive.R2.Bucket == "" {
			return errors.New("archive.r2.endpoint and archive.r2.bucket are required for the r2 driver")
		}
	default:
		return fmt.Errorf("unknown archive.driver %q", c.Archive.Driver)
	}
	switch c.Mail.Mode {
	case "mock":
	case "smtp":
		if strings.TrimSpace(c.Mail.CredentialsPath) == "" || strings.TrimSpace(c.Mail.KeyPath) == "" {
			return errors.New("mail.credentialsPath and mail.keyPath are required in smtp mode")
		}
	default:
		return fmt.Errorf("unknown mail.mode %q", c.Mail.Mode)
	}
	switch c.Mail.Auth {
	case "plain":
	case "xoauth2":
		if c.Mail.OAuth.ClientID == "" || c.Mail.OAuth.RefreshToken == "" {
			return errors.New("mail.oauth.clientId and mail.oauth.refreshToken are required for xoauth2")
		}
	default:
		return fmt.Errorf("unknown mail.auth %q", c.Mail.Auth)
	}
	return nil
}

func (r RetryConfig) validate(name string) error {
	if !r.Enabled {
		return nil
	}
	if r.MaxAttempts <= 0 {
		return fmt.Errorf("%s.maxAttempts must be positive", name)
	}
	if r.BaseBackoff <= 0 {
		return fmt.Errorf("%s.baseBackoff must be positive", name)
	}
	return nil
}

// ParseClock parses "HH:MM" into an offset from midnight.
func ParseClock(value string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q", value)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
