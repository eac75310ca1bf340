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
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cron         CronConfig
	Outbox       OutboxConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
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
	Env          string   `envconfig:"SOCIETYHUB_APP_ENV" required:"true"`
	Port         string   `envconfig:"SOCIETYHUB_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"SOCIETYHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"SOCIETYHUB_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"SOCIETYHUB_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SOCIETYHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SOCIETYHUB_DB_DSN"`
	Driver string `envconfig:"SOCIETYHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOCIETYHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"SOCIETYHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOCIETYHUB_DB_USER"`
	LegacyPassword string `envconfig:"SOCIETYHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOCIETYHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOCIETYHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOCIETYHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOCIETYHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOCIETYHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOCIETYHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOCIETYHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOCIETYHUB_REDIS_ADDR"`
	Password     string        `envconfig:"SOCIETYHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOCIETYHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOCIETYHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOCIETYHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOCIETYHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOCIETYHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOCIETYHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig holds the shared secret used to verify identity tokens issued by
// the auth service.
type JWTConfig struct {
	Secret            string `envconfig:"SOCIETYHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SOCIETYHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SOCIETYHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SOCIETYHUB_AUTO_MIGRATE" default:"false"`
}

// CronConfig tunes the cron worker cadence and its distributed lock.
type CronConfig struct {
	Interval        time.Duration `envconfig:"SOCIETYHUB_CRON_INTERVAL" default:"1m"`
	LockTTL         time.Duration `envconfig:"SOCIETYHUB_CRON_LOCK_TTL" default:"5m"`
	ExpiryBatchSize int           `envconfig:"SOCIETYHUB_CRON_EXPIRY_BATCH_SIZE" default:"200"`
}

// OutboxConfig tunes the publisher relay and the retention job. Rows that
// reach MaxAttempts stop being relayed and become eligible for retention.
type OutboxConfig struct {
	RetentionDays  int `envconfig:"SOCIETYHUB_OUTBOX_RETENTION_DAYS" default:"30"`
	BatchSize      int `envconfig:"SOCIETYHUB_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SOCIETYHUB_OUTBOX_POLL_INTERVAL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SOCIETYHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// GCPConfig identifies the project hosting the event topics. Only the outbox
// publisher reads it.
type GCPConfig struct {
	ProjectID              string `envconfig:"SOCIETYHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"SOCIETYHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SOCIETYHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	VotingTopic string `envconfig:"SOCIETYHUB_PUBSUB_VOTING_TOPIC" default:"sh-voting-events"`
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
