package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// ErrMissingEncryptionKey is returned when no payment encryption key is configured.
// The service refuses to start rather than encrypt under a key that will not survive a restart.
var ErrMissingEncryptionKey = errors.New("PAYMENT_ENCRYPTION_KEY is not set")

const minKeyLength = 32

type Config struct {
	Port         string
	Environment  string
	LogLevel     string
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers string
	NatsURL      string
	OTLPEndpoint string

	// TrustedProxies lists the addresses or CIDRs allowed to set X-Forwarded-For.
	TrustedProxies []string

	Security Security
	Limits   Limits
	Timeouts Timeouts
	Gateway  Gateway
	GeoIP    GeoIP
	Velocity Velocity
	Schedule Schedule
}

type Security struct {
	EncryptionKey string
	KeySalt       string
	AuditTopic    string
}

// Limits are the fraud and validation thresholds.
type Limits struct {
	MaxDailyAmount       decimal.Decimal
	MaxTransactionAmount decimal.Decimal
	MaxFailedAttempts    int
	VelocityMaxCount     int
	VelocityWindow       time.Duration
	HistoryRetention     time.Duration
}

type Timeouts struct {
	Gateway   time.Duration
	GeoLookup time.Duration
	Shutdown  time.Duration
}

type Gateway struct {
	Provider  string // mock|stripe
	StripeKey string
}

type GeoIP struct {
	Provider           string // none|static|nats
	Subject            string
	SuspiciousNetworks []string
}

type Velocity struct {
	Backend string // memory|redis
}

type Schedule struct {
	Eviction string
	Report   string
}

// DefaultLimits returns the thresholds the service ships with.
func DefaultLimits() Limits {
	return Limits{
		MaxDailyAmount:       decimal.NewFromInt(10000),
		MaxTransactionAmount: decimal.NewFromInt(5000),
		MaxFailedAttempts:    3,
		VelocityMaxCount:     5,
		VelocityWindow:       10 * time.Minute,
		HistoryRetention:     24 * time.Hour,
	}
}

func setDefaults(v *viper.Viper) {
	limits := DefaultLimits()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTLP_ENDPOINT", "jaeger:4318")
	v.SetDefault("AUDIT_TOPIC", "payment.audit")

	v.SetDefault("MAX_DAILY_AMOUNT", limits.MaxDailyAmount.String())
	v.SetDefault("MAX_TRANSACTION_AMOUNT", limits.MaxTransactionAmount.String())
	v.SetDefault("MAX_FAILED_ATTEMPTS", limits.MaxFailedAttempts)
	v.SetDefault("VELOCITY_MAX_COUNT", limits.VelocityMaxCount)
	v.SetDefault("VELOCITY_WINDOW", limits.VelocityWindow)
	v.SetDefault("HISTORY_RETENTION", limits.HistoryRetention)

	v.SetDefault("GATEWAY_TIMEOUT", 10*time.Second)
	v.SetDefault("GEO_LOOKUP_TIMEOUT", 2*time.Second)
	v.SetDefault("SHUTDOWN_TIMEOUT", 5*time.Second)

	v.SetDefault("GATEWAY_PROVIDER", "mock")
	v.SetDefault("GEOIP_PROVIDER", "none")
	v.SetDefault("GEOIP_SUBJECT", "geoip.lookup")
	v.SetDefault("VELOCITY_BACKEND", "memory")

	v.SetDefault("EVICTION_SCHEDULE", "@every 5m")
	v.SetDefault("REPORT_SCHEDULE", "@daily")
}

// Load reads .env, an optional CONFIG_FILE and the environment, in increasing priority.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	maxDaily, err := decimal.NewFromString(v.GetString("MAX_DAILY_AMOUNT"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_DAILY_AMOUNT: %w", err)
	}
	maxTxn, err := decimal.NewFromString(v.GetString("MAX_TRANSACTION_AMOUNT"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_TRANSACTION_AMOUNT: %w", err)
	}

	cfg := &Config{
		Port:         v.GetString("PORT"),
		Environment:  v.GetString("ENVIRONMENT"),
		LogLevel:     v.GetString("LOG_LEVEL"),
		DatabaseURL:  v.GetString("DATABASE_URL"),
		RedisURL:     v.GetString("REDIS_URL"),
		KafkaBrokers: v.GetString("KAFKA_BROKERS"),
		NatsURL:      v.GetString("NATS_URL"),
		OTLPEndpoint: v.GetString("OTLP_ENDPOINT"),

		TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),

		Security: Security{
			EncryptionKey: v.GetString("PAYMENT_ENCRYPTION_KEY"),
			KeySalt:       v.GetString("PAYMENT_KEY_SALT"),
			AuditTopic:    v.GetString("AUDIT_TOPIC"),
		},
		Limits: Limits{
			MaxDailyAmount:       maxDaily,
			MaxTransactionAmount: maxTxn,
			MaxFailedAttempts:    v.GetInt("MAX_FAILED_ATTEMPTS"),
			VelocityMaxCount:     v.GetInt("VELOCITY_MAX_COUNT"),
			VelocityWindow:       v.GetDuration("VELOCITY_WINDOW"),
			HistoryRetention:     v.GetDuration("HISTORY_RETENTION"),
		},
		Timeouts: Timeouts{
			Gateway:   v.GetDuration("GATEWAY_TIMEOUT"),
			GeoLookup: v.GetDuration("GEO_LOOKUP_TIMEOUT"),
			Shutdown:  v.GetDuration("SHUTDOWN_TIMEOUT"),
		},
		Gateway: Gateway{
			Provider:  strings.ToLower(v.GetString("GATEWAY_PROVIDER")),
			StripeKey: v.GetString("STRIPE_SECRET_KEY"),
		},
		GeoIP: GeoIP{
			Provider:           strings.ToLower(v.GetString("GEOIP_PROVIDER")),
			Subject:            v.GetString("GEOIP_SUBJECT"),
			SuspiciousNetworks: splitList(v.GetString("GEOIP_SUSPICIOUS_NETWORKS")),
		},
		Velocity: Velocity{
			Backend: strings.ToLower(v.GetString("VELOCITY_BACKEND")),
		},
		Schedule: Schedule{
			Eviction: v.GetString("EVICTION_SCHEDULE"),
			Report:   v.GetString("REPORT_SCHEDULE"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Security.EncryptionKey == "" {
		return ErrMissingEncryptionKey
	}
	if len(c.Security.EncryptionKey) < minKeyLength {
		return fmt.Errorf("PAYMENT_ENCRYPTION_KEY must be at least %d characters", minKeyLength)
	}
	if c.Limits.VelocityWindow <= 0 {
		return fmt.Errorf("VELOCITY_WINDOW must be positive")
	}
	if c.Limits.HistoryRetention < c.Limits.VelocityWindow || c.Limits.HistoryRetention < 24*time.Hour {
		return fmt.Errorf("HISTORY_RETENTION must cover the velocity window and one day")
	}
	if c.Limits.MaxFailedAttempts < 0 {
		return fmt.Errorf("MAX_FAILED_ATTEMPTS must not be negative")
	}
	switch c.Gateway.Provider {
	case "mock":
	case "stripe":
		if c.Gateway.StripeKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required for the stripe gateway")
		}
	default:
		return fmt.Errorf("unknown GATEWAY_PROVIDER %q", c.Gateway.Provider)
	}
	switch c.GeoIP.Provider {
	case "none", "nats":
	case "static":
		if len(c.GeoIP.SuspiciousNetworks) == 0 {
			return fmt.Errorf("GEOIP_SUSPICIOUS_NETWORKS is required for the static geoip provider")
		}
	default:
		return fmt.Errorf("unknown GEOIP_PROVIDER %q", c.GeoIP.Provider)
	}
	switch c.Velocity.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown VELOCITY_BACKEND %q", c.Velocity.Backend)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
