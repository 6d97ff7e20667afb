package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SHOPLY_DB_DSN"
	EnvDBHost = "SHOPLY_DB_HOST"
	EnvDBUser = "SHOPLY_DB_USER"
	EnvDBName = "SHOPLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SHOPLY_APP_ENV" required:"true"`
	Port         string `envconfig:"SHOPLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHOPLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHOPLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SHOPLY_DB_DSN"`
	Driver string `envconfig:"SHOPLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHOPLY_DB_HOST"`
	LegacyPort     int    `envconfig:"SHOPLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHOPLY_DB_USER"`
	LegacyPassword string `envconfig:"SHOPLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHOPLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHOPLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHOPLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHOPLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHOPLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHOPLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHOPLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHOPLY_REDIS_ADDR"`
	Password     string        `envconfig:"SHOPLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHOPLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHOPLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHOPLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHOPLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHOPLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHOPLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SHOPLY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SHOPLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SHOPLY_JWT_EXPIRATION_MINUTES" default:"60"`
}

// CartConfig tunes snapshot persistence and coupon auto-apply.
type CartConfig struct {
	SnapshotTTL      time.Duration `envconfig:"SHOPLY_CART_SNAPSHOT_TTL" default:"720h"`
	GuestSnapshotTTL time.Duration `envconfig:"SHOPLY_CART_GUEST_SNAPSHOT_TTL" default:"168h"`
	// AutoApplyCodes are tried in order until one validates; see coupon engine.
	AutoApplyCodes []string `envconfig:"SHOPLY_CART_AUTO_APPLY_CODES" default:"WELCOME10,SAVE5"`
}

// CheckoutConfig holds the flat tax rate and the shipping tier table used by
// both group totals and delivery estimates.
type CheckoutConfig struct {
	TaxRate float64 `envconfig:"SHOPLY_CHECKOUT_TAX_RATE" default:"0.10"`

	StandardFeeCents      int `envconfig:"SHOPLY_SHIPPING_STANDARD_FEE_CENTS" default:"500"`
	StandardLeadDays      int `envconfig:"SHOPLY_SHIPPING_STANDARD_LEAD_DAYS" default:"5"`
	ExpressFeeCents       int `envconfig:"SHOPLY_SHIPPING_EXPRESS_FEE_CENTS" default:"1500"`
	ExpressLeadDays       int `envconfig:"SHOPLY_SHIPPING_EXPRESS_LEAD_DAYS" default:"2"`
	InternationalFeeCents int `envconfig:"SHOPLY_SHIPPING_INTERNATIONAL_FEE_CENTS" default:"4500"`
	InternationalLeadDays int `envconfig:"SHOPLY_SHIPPING_INTERNATIONAL_LEAD_DAYS" default:"12"`
}

// ShippingTier describes one shipping method's flat fee and lead time.
type ShippingTier struct {
	BaseFeeCents int
	LeadTimeDays int
}

// Tiers returns the configured tier table keyed by shipping method name.
func (c CheckoutConfig) Tiers() map[string]ShippingTier {
	return map[string]ShippingTier{
		"standard":      {BaseFeeCents: c.StandardFeeCents, LeadTimeDays: c.StandardLeadDays},
		"express":       {BaseFeeCents: c.ExpressFeeCents, LeadTimeDays: c.ExpressLeadDays},
		"international": {BaseFeeCents: c.InternationalFeeCents, LeadTimeDays: c.InternationalLeadDays},
	}
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHOPLY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
