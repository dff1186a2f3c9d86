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
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Push         PushConfig
	Catalog      CatalogConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = "sqlite"
		if cfg.DB.DSN == "" {
			cfg.DB.DSN = defaultSQLiteDSN
		}
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PAINTREF_APP_ENV" required:"true"`
	Port         string `envconfig:"PAINTREF_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PAINTREF_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PAINTREF_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PAINTREF_DB_DSN"`
	Driver string `envconfig:"PAINTREF_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PAINTREF_DB_HOST"`
	LegacyPort     int    `envconfig:"PAINTREF_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PAINTREF_DB_USER"`
	LegacyPassword string `envconfig:"PAINTREF_DB_PASSWORD"`
	LegacyName     string `envconfig:"PAINTREF_DB_NAME"`
	LegacySSLMode  string `envconfig:"PAINTREF_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PAINTREF_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PAINTREF_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PAINTREF_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PAINTREF_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PAINTREF_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PAINTREF_REDIS_ADDR"`
	Password     string        `envconfig:"PAINTREF_REDIS_PASSWORD"`
	DB           int           `envconfig:"PAINTREF_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PAINTREF_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PAINTREF_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PAINTREF_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PAINTREF_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PAINTREF_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PAINTREF_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PAINTREF_AUTO_MIGRATE" default:"false"`
	// PushEnabled switches the notifier from the log sender to Pub/Sub delivery.
	PushEnabled bool `envconfig:"PAINTREF_PUSH_ENABLED" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PAINTREF_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PAINTREF_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PAINTREF_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	PushTopic string `envconfig:"PAINTREF_PUBSUB_PUSH_TOPIC" default:"paintref-push-notifications"`
}

type PushConfig struct {
	BatchSize   int           `envconfig:"PAINTREF_PUSH_BATCH_SIZE" default:"500"`
	SendTimeout time.Duration `envconfig:"PAINTREF_PUSH_SEND_TIMEOUT" default:"30s"`
}

type CatalogConfig struct {
	BrandCacheTTL      time.Duration `envconfig:"PAINTREF_BRAND_CACHE_TTL" default:"10m"`
	RankerConcurrency  int           `envconfig:"PAINTREF_RANKER_CONCURRENCY" default:"8"`
	ReorderLockTTL     time.Duration `envconfig:"PAINTREF_REORDER_LOCK_TTL" default:"10s"`
	ReorderLockBackoff time.Duration `envconfig:"PAINTREF_REORDER_LOCK_BACKOFF" default:"50ms"`
	CategoryBatchSize  int           `envconfig:"PAINTREF_CATEGORY_BATCH_SIZE" default:"200"`
	OpsPort            string        `envconfig:"PAINTREF_OPS_PORT"`
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
