package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "KOVEO"

const (
	EnvDBDSN  = "KOVEO_DB_DSN"
	EnvDBHost = "KOVEO_DB_HOST"
	EnvDBUser = "KOVEO_DB_USER"
	EnvDBName = "KOVEO_DB_NAME"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Invitation   InvitationConfig
	RateLimit    RateLimitConfig
	Deletion     DeletionConfig
	Cron         CronConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"KOVEO_APP_ENV" required:"true"`
	Port         string `envconfig:"KOVEO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"KOVEO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"KOVEO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"KOVEO_DB_DSN"`

	LegacyHost     string `envconfig:"KOVEO_DB_HOST"`
	LegacyPort     int    `envconfig:"KOVEO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"KOVEO_DB_USER"`
	LegacyPassword string `envconfig:"KOVEO_DB_PASSWORD"`
	LegacyName     string `envconfig:"KOVEO_DB_NAME"`
	LegacySSLMode  string `envconfig:"KOVEO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"KOVEO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"KOVEO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"KOVEO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"KOVEO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"KOVEO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"KOVEO_REDIS_ADDR"`
	Password     string        `envconfig:"KOVEO_REDIS_PASSWORD"`
	DB           int           `envconfig:"KOVEO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"KOVEO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"KOVEO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"KOVEO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"KOVEO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"KOVEO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"KOVEO_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"KOVEO_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"KOVEO_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"KOVEO_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"KOVEO_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"KOVEO_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"KOVEO_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"KOVEO_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"KOVEO_ARGON_KEY_LEN" default:"32"`
}

type InvitationConfig struct {
	TTL            time.Duration `envconfig:"KOVEO_INVITATION_TTL" default:"168h"`
	SweepBatchSize int           `envconfig:"KOVEO_INVITATION_SWEEP_BATCH_SIZE" default:"500"`
}

type RateLimitConfig struct {
	ValidateWindow      time.Duration `envconfig:"KOVEO_RATE_LIMIT_VALIDATE_WINDOW" default:"1m"`
	ValidateIPLimit     int           `envconfig:"KOVEO_RATE_LIMIT_VALIDATE_IP_LIMIT" default:"20"`
	AcceptWindow        time.Duration `envconfig:"KOVEO_RATE_LIMIT_ACCEPT_WINDOW" default:"5m"`
	AcceptIPLimit       int           `envconfig:"KOVEO_RATE_LIMIT_ACCEPT_IP_LIMIT" default:"10"`
	LoginWindow         time.Duration `envconfig:"KOVEO_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit     int           `envconfig:"KOVEO_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit        int           `envconfig:"KOVEO_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	FailClosedOnMissing bool          `envconfig:"KOVEO_RATE_LIMIT_FAIL_CLOSED" default:"false"`
}

type DeletionConfig struct {
	CascadeTimeout time.Duration `envconfig:"KOVEO_DELETION_CASCADE_TIMEOUT" default:"2m"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"KOVEO_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"KOVEO_CRON_LOCK_TTL" default:"30m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"KOVEO_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"KOVEO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"KOVEO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"KOVEO_GCS_BUCKET_NAME"`
	UploadURLExpiry   time.Duration `envconfig:"KOVEO_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"KOVEO_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"KOVEO_PUBSUB_NOTIFICATION_TOPIC" default:"koveo-notification-events"`
	NotificationSubscription string `envconfig:"KOVEO_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"KOVEO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"KOVEO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"KOVEO_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"KOVEO_OUTBOX_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"KOVEO_AUTO_MIGRATE" default:"false"`
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
