package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	Bundle       BundleConfig
	CartService  CartServiceConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"PACKLANE_APP_ENV" required:"true"`
	Port         string `envconfig:"PACKLANE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PACKLANE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PACKLANE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PACKLANE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PACKLANE_DB_DSN"`
	Driver string `envconfig:"PACKLANE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PACKLANE_DB_HOST"`
	LegacyPort     int    `envconfig:"PACKLANE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PACKLANE_DB_USER"`
	LegacyPassword string `envconfig:"PACKLANE_DB_PASSWORD"`
	LegacyName     string `envconfig:"PACKLANE_DB_NAME"`
	LegacySSLMode  string `envconfig:"PACKLANE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PACKLANE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PACKLANE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PACKLANE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PACKLANE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PACKLANE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PACKLANE_REDIS_ADDR"`
	Password     string        `envconfig:"PACKLANE_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACKLANE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACKLANE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PACKLANE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PACKLANE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACKLANE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PACKLANE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// SessionConfig controls the signed pack-builder session tokens and how long
// idle selections are kept in Redis.
type SessionConfig struct {
	Secret            string        `envconfig:"PACKLANE_SESSION_SECRET" required:"true"`
	Issuer            string        `envconfig:"PACKLANE_SESSION_ISSUER" required:"true"`
	ExpirationMinutes int           `envconfig:"PACKLANE_SESSION_EXPIRATION_MINUTES" default:"1440"`
	SnapshotTTL       time.Duration `envconfig:"PACKLANE_SESSION_SNAPSHOT_TTL" default:"24h"`
}

// TokenTTL returns the session token lifetime.
func (s SessionConfig) TokenTTL() time.Duration {
	if s.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(s.ExpirationMinutes) * time.Minute
}

// BundleConfig carries the discount tier table as raw text; parsing and
// validation live in internal/bundle.
type BundleConfig struct {
	Tiers string `envconfig:"PACKLANE_BUNDLE_TIERS" default:""`
}

type CartServiceConfig struct {
	BaseURL        string        `envconfig:"PACKLANE_CART_SERVICE_URL" required:"true"`
	AddPath        string        `envconfig:"PACKLANE_CART_SERVICE_ADD_PATH" default:"/cart/add.js"`
	RequestTimeout time.Duration `envconfig:"PACKLANE_CART_SERVICE_TIMEOUT" default:"10s"`
	SubmitLockTTL  time.Duration `envconfig:"PACKLANE_CART_SUBMIT_LOCK_TTL" default:"30s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"PACKLANE_CORS_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PACKLANE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PACKLANE_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"PACKLANE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PacksTopic string `envconfig:"PACKLANE_PUBSUB_PACKS_TOPIC" default:"packlane-pack-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PACKLANE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PACKLANE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PACKLANE_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
