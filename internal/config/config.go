// AngelaMos | 2026
// config.go

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	Session   SessionConfig   `koanf:"session"`
	OTP       OTPConfig       `koanf:"otp"`
	SMTP      SMTPConfig      `koanf:"smtp"`
	Google    GoogleConfig    `koanf:"google"`
	Authz     AuthzConfig     `koanf:"authz"`
	Activity  ActivityConfig  `koanf:"activity"`
	AMQP      AMQPConfig      `koanf:"amqp"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

// SessionConfig controls server-side login sessions and the cookie that
// carries their id. CookieMaxAge is independent of TTL; a browser may keep
// a cookie around after the session behind it is gone.
type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	RefreshWindow time.Duration `koanf:"refresh_window"`
	MaxPerUser    int           `koanf:"max_per_user"`
	CookieName    string        `koanf:"cookie_name"`
	CookieSecret  string        `koanf:"cookie_secret"`
	CookieSecure  bool          `koanf:"cookie_secure"`
	CookieMaxAge  time.Duration `koanf:"cookie_max_age"`
}

type OTPConfig struct {
	TTL    time.Duration `koanf:"ttl"`
	Digits int           `koanf:"digits"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	Subject  string `koanf:"subject"`
}

type GoogleConfig struct {
	ClientID string        `koanf:"client_id"`
	JWKSURL  string        `koanf:"jwks_url"`
	Issuers  []string      `koanf:"issuers"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// AuthzConfig lists role names from lowest to highest rank.
type AuthzConfig struct {
	Roles []string `koanf:"roles"`
}

type ActivityConfig struct {
	Transport  string `koanf:"transport"`
	BufferSize int    `koanf:"buffer_size"`
	Workers    int    `koanf:"workers"`
}

type AMQPConfig struct {
	URL      string `koanf:"url"`
	Queue    string `koanf:"queue"`
	Prefetch int    `koanf:"prefetch"`
}

type LimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"`
}

type RateLimitConfig struct {
	General LimitConfig `koanf:"general"`
	Auth    LimitConfig `koanf:"auth"`
	Admin   LimitConfig `koanf:"admin"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

const (
	ActivityTransportDirect = "direct"
	ActivityTransportAMQP   = "amqp"
)

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath, ".env")
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func load(configPath, dotenvPath string) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load dotenv: %w", err)
		}
	}

	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	c := &Config{}
	if err := k.Unmarshal("", c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(c); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Admin Console",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "30s",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.auto_migrate":       true,

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,

		"session.ttl":            "8h",
		"session.refresh_window": "30m",
		"session.max_per_user":   2,
		"session.cookie_name":    "sid",
		"session.cookie_secure":  true,
		"session.cookie_max_age": "168h",

		"otp.ttl":    "10m",
		"otp.digits": 6,

		"smtp.port":    587,
		"smtp.subject": "Your one-time code",

		"google.jwks_url": "https://www.googleapis.com/oauth2/v3/certs",
		"google.issuers": []string{
			"accounts.google.com",
			"https://accounts.google.com",
		},
		"google.cache_ttl": "1h",

		"authz.roles": []string{"user", "manager", "admin", "superadmin"},

		"activity.transport":   ActivityTransportDirect,
		"activity.buffer_size": 1024,
		"activity.workers":     2,

		"amqp.queue":    "activity.recorded",
		"amqp.prefetch": 50,

		"rate_limit.general.requests": 100,
		"rate_limit.general.window":   "15m",
		"rate_limit.general.burst":    100,
		"rate_limit.auth.requests":    10,
		"rate_limit.auth.window":      "15m",
		"rate_limit.auth.burst":       10,
		"rate_limit.admin.requests":   50,
		"rate_limit.admin.window":     "15m",
		"rate_limit.admin.burst":      50,

		"cors.allowed_origins": []string{"http://localhost:3000"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": true,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "admin-console",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_AUTO_MIGRATE":       "database.auto_migrate",
	"REDIS_URL":                   "redis.url",
	"ENVIRONMENT":                 "app.environment",
	"HOST":                        "server.host",
	"PORT":                        "server.port",
	"LOG_LEVEL":                   "log.level",
	"LOG_FORMAT":                  "log.format",
	"SESSION_TTL":                 "session.ttl",
	"SESSION_REFRESH_WINDOW":      "session.refresh_window",
	"SESSION_MAX_PER_USER":        "session.max_per_user",
	"COOKIE_SECRET":               "session.cookie_secret",
	"COOKIE_SECURE":               "session.cookie_secure",
	"COOKIE_MAX_AGE":              "session.cookie_max_age",
	"OTP_TTL":                     "otp.ttl",
	"OTP_DIGITS":                  "otp.digits",
	"SMTP_HOST":                   "smtp.host",
	"SMTP_PORT":                   "smtp.port",
	"SMTP_USERNAME":               "smtp.username",
	"SMTP_PASSWORD":               "smtp.password",
	"SMTP_FROM":                   "smtp.from",
	"GOOGLE_CLIENT_ID":            "google.client_id",
	"GOOGLE_JWKS_URL":             "google.jwks_url",
	"ACTIVITY_TRANSPORT":          "activity.transport",
	"ACTIVITY_BUFFER_SIZE":        "activity.buffer_size",
	"ACTIVITY_WORKERS":            "activity.workers",
	"AMQP_URL":                    "amqp.url",
	"RABBITMQ_URL":                "amqp.url",
	"AMQP_QUEUE":                  "amqp.queue",
	"OTEL_ENDPOINT":               "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "otel.endpoint",
	"OTEL_SERVICE_NAME":           "otel.service_name",
	"OTEL_ENABLED":                "otel.enabled",
	"OTEL_INSECURE":               "otel.insecure",
	"OTEL_SAMPLE_RATE":            "otel.sample_rate",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if len(c.Session.CookieSecret) < 32 {
		return fmt.Errorf("COOKIE_SECRET must be at least 32 bytes")
	}

	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}

	if c.Session.RefreshWindow < 0 || c.Session.RefreshWindow >= c.Session.TTL {
		return fmt.Errorf("session.refresh_window must be within session.ttl")
	}

	if c.Session.MaxPerUser < 1 {
		return fmt.Errorf("session.max_per_user must be at least 1")
	}

	if c.OTP.TTL <= 0 {
		return fmt.Errorf("otp.ttl must be positive")
	}

	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return fmt.Errorf("otp.digits must be between 4 and 10")
	}

	if len(c.Authz.Roles) < 2 {
		return fmt.Errorf("authz.roles must list at least two roles")
	}

	switch c.Activity.Transport {
	case ActivityTransportDirect:
	case ActivityTransportAMQP:
		if c.AMQP.URL == "" {
			return fmt.Errorf("AMQP_URL is required for the amqp activity transport")
		}
	default:
		return fmt.Errorf("unknown activity transport %q", c.Activity.Transport)
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.IsProduction() {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
		if !c.Session.CookieSecure {
			return fmt.Errorf("COOKIE_SECURE must be true in production")
		}
		if c.Google.ClientID == "" {
			return fmt.Errorf("GOOGLE_CLIENT_ID is required in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
