package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	// DSN may contain a <PASSWORD> placeholder replaced by Password at load
	// time, so the secret can be injected separately from the rest of the URL.
	DSN             string
	Password        string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
	PublicURL string
}

type LoggingConfig struct {
	// Level overrides the environment default (debug in development, info
	// in production). Any zerolog level name is accepted.
	Level string
}

type SecurityConfig struct {
	JWTSecret string
	JWTTTL    time.Duration
	CookieTTL time.Duration
}

type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

type EmailConfig struct {
	Endpoint  string
	APIKey    string
	FromEmail string
	FromName  string
}

type PaymentsConfig struct {
	Endpoint      string
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type AppConfig struct {
	Environment      string
	PublicBaseURL    string
	AllowCORSOrigins []string
	Logging          LoggingConfig
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Security         SecurityConfig
	RateLimit        RateLimitConfig
	Email            EmailConfig
	Payments         PaymentsConfig
}

func (c *AppConfig) Production() bool { return c.Environment == "production" }

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("TRAILBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Postgres.DSN = strings.ReplaceAll(cfg.Postgres.DSN, "<PASSWORD>", cfg.Postgres.Password)

	if cfg.Security.JWTSecret == "" {
		return nil, fmt.Errorf("security.jwtsecret is required")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("publicbaseurl", "http://localhost:8080")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.bucket", "trailbook-media")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("security.jwtttl", "2160h")  // 90 days
	v.SetDefault("security.cookiettl", "2160h")

	v.SetDefault("ratelimit.max", 100)
	v.SetDefault("ratelimit.window", "1h")

	v.SetDefault("email.endpoint", "https://api.sendgrid.com/v3/mail/send")
	v.SetDefault("email.fromname", "Trailbook")

	v.SetDefault("payments.endpoint", "https://api.stripe.com")
	v.SetDefault("payments.currency", "usd")
}
