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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Cron         CronConfig
	Dispatch     DispatchConfig
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
	Env          string `envconfig:"LOCALDROP_APP_ENV" required:"true"`
	Port         string `envconfig:"LOCALDROP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LOCALDROP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LOCALDROP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LOCALDROP_DB_DSN"`
	Driver string `envconfig:"LOCALDROP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LOCALDROP_DB_HOST"`
	LegacyPort     int    `envconfig:"LOCALDROP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LOCALDROP_DB_USER"`
	LegacyPassword string `envconfig:"LOCALDROP_DB_PASSWORD"`
	LegacyName     string `envconfig:"LOCALDROP_DB_NAME"`
	LegacySSLMode  string `envconfig:"LOCALDROP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LOCALDROP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LOCALDROP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LOCALDROP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LOCALDROP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LOCALDROP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LOCALDROP_REDIS_ADDR"`
	Password     string        `envconfig:"LOCALDROP_REDIS_PASSWORD"`
	DB           int           `envconfig:"LOCALDROP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LOCALDROP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LOCALDROP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LOCALDROP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LOCALDROP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LOCALDROP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"LOCALDROP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LOCALDROP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LOCALDROP_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LOCALDROP_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"LOCALDROP_GCP_PROJECT_ID" required:"true"`
}

type PubSubConfig struct {
	OrderEventsTopic        string `envconfig:"LOCALDROP_PUBSUB_ORDER_EVENTS_TOPIC" default:"ld-order-events"`
	OrderEventsSubscription string `envconfig:"LOCALDROP_PUBSUB_ORDER_EVENTS_SUBSCRIPTION" required:"true"`
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"LOCALDROP_CRON_INTERVAL" default:"5m"`
	LockKey     string        `envconfig:"LOCALDROP_CRON_LOCK_KEY" default:"ld:cron:lock"`
	LockTTL     time.Duration `envconfig:"LOCALDROP_CRON_LOCK_TTL" default:"10m"`
	MetricsPort string        `envconfig:"LOCALDROP_CRON_METRICS_PORT" default:"9091"`
}

type DispatchConfig struct {
	NotificationRetention time.Duration `envconfig:"LOCALDROP_NOTIFICATION_RETENTION" default:"720h"`
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
