package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix is the envconfig prefix shared by every variable.
	EnvPrefix = "PADMAAJA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "PADMAAJA_DB_DSN"
	EnvDBHost = "PADMAAJA_DB_HOST"
	EnvDBUser = "PADMAAJA_DB_USER"
	EnvDBName = "PADMAAJA_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Commission    CommissionConfig
	Genealogy     GenealogyConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
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
	Env          string `envconfig:"PADMAAJA_APP_ENV" required:"true"`
	Port         string `envconfig:"PADMAAJA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PADMAAJA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PADMAAJA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PADMAAJA_DB_DSN"`
	Driver string `envconfig:"PADMAAJA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PADMAAJA_DB_HOST"`
	LegacyPort     int    `envconfig:"PADMAAJA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PADMAAJA_DB_USER"`
	LegacyPassword string `envconfig:"PADMAAJA_DB_PASSWORD"`
	LegacyName     string `envconfig:"PADMAAJA_DB_NAME"`
	LegacySSLMode  string `envconfig:"PADMAAJA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PADMAAJA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PADMAAJA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PADMAAJA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PADMAAJA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PADMAAJA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PADMAAJA_REDIS_ADDR"`
	Password     string        `envconfig:"PADMAAJA_REDIS_PASSWORD"`
	DB           int           `envconfig:"PADMAAJA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PADMAAJA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PADMAAJA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PADMAAJA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PADMAAJA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PADMAAJA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PADMAAJA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PADMAAJA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PADMAAJA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PADMAAJA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PADMAAJA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PADMAAJA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PADMAAJA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PADMAAJA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PADMAAJA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PADMAAJA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PADMAAJA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PADMAAJA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PADMAAJA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PADMAAJA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PADMAAJA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PADMAAJA_AUTO_MIGRATE" default:"false"`
}

// CommissionConfig bounds the upline walk; the per-level percentages live in
// the commission_rates table and are admin managed.
type CommissionConfig struct {
	MaxLevels int `envconfig:"PADMAAJA_COMMISSION_MAX_LEVELS" default:"5"`
}

type GenealogyConfig struct {
	MaxDepth     int `envconfig:"PADMAAJA_GENEALOGY_MAX_DEPTH" default:"10"`
	DefaultDepth int `envconfig:"PADMAAJA_GENEALOGY_DEFAULT_DEPTH" default:"3"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"PADMAAJA_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"PADMAAJA_PUBSUB_DOMAIN_TOPIC" default:"padmaaja-domain-events"`
	DomainSubscription string `envconfig:"PADMAAJA_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PADMAAJA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PADMAAJA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PADMAAJA_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
