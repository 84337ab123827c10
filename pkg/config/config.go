package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App     AppConfig
	Service ServiceConfig
	DB      DBConfig
	Redis   RedisConfig
	Tax     TaxConfig
	Quotes  QuotesConfig
	Cron    CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Tax.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MERCHKIT_APP_ENV" required:"true"`
	LogLevel     string `envconfig:"MERCHKIT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MERCHKIT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MERCHKIT_SERVICE_KIND" default:"quotes"`
}

type DBConfig struct {
	DSN    string `envconfig:"MERCHKIT_DB_DSN"`
	Driver string `envconfig:"MERCHKIT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MERCHKIT_DB_HOST"`
	LegacyPort     int    `envconfig:"MERCHKIT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MERCHKIT_DB_USER"`
	LegacyPassword string `envconfig:"MERCHKIT_DB_PASSWORD"`
	LegacyName     string `envconfig:"MERCHKIT_DB_NAME"`
	LegacySSLMode  string `envconfig:"MERCHKIT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MERCHKIT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MERCHKIT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MERCHKIT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MERCHKIT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MERCHKIT_REDIS_URL"`
	Address      string        `envconfig:"MERCHKIT_REDIS_ADDR"`
	Password     string        `envconfig:"MERCHKIT_REDIS_PASSWORD"`
	DB           int           `envconfig:"MERCHKIT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MERCHKIT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MERCHKIT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MERCHKIT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MERCHKIT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MERCHKIT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// TaxConfig carries the single tax rate applied to quote totals. The rate is
// loaded here once and handed to pricing calls as an explicit value; pricing
// never reads it from ambient state.
type TaxConfig struct {
	RatePercent string `envconfig:"MERCHKIT_TAX_RATE_PERCENT" default:"21"`
	Enabled     bool   `envconfig:"MERCHKIT_TAX_ENABLED" default:"true"`
}

func (t TaxConfig) validate() error {
	rate, err := decimal.NewFromString(t.RatePercent)
	if err != nil {
		return fmt.Errorf("invalid tax rate %q: %w", t.RatePercent, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("tax rate must not be negative, got %s", rate)
	}
	return nil
}

// Rate returns the configured tax rate in percentage points.
func (t TaxConfig) Rate() decimal.Decimal {
	rate, err := decimal.NewFromString(t.RatePercent)
	if err != nil {
		return decimal.Zero
	}
	return rate
}

type QuotesConfig struct {
	ValidityDays      int `envconfig:"MERCHKIT_QUOTE_VALIDITY_DAYS" default:"30"`
	ExpiryWarningDays int `envconfig:"MERCHKIT_QUOTE_EXPIRY_WARNING_DAYS" default:"3"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"MERCHKIT_CRON_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"MERCHKIT_CRON_LOCK_TTL" default:"25h"`
}

func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.LegacyHost == "" || d.LegacyUser == "" || d.LegacyName == "" {
		return fmt.Errorf("either MERCHKIT_DB_DSN or MERCHKIT_DB_HOST/USER/NAME must be set")
	}
	d.DSN = fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.LegacyUser),
		url.QueryEscape(d.LegacyPassword),
		d.LegacyHost,
		d.LegacyPort,
		url.PathEscape(d.LegacyName),
		d.LegacySSLMode,
	)
	return nil
}
