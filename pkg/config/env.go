package config

// EnvPrefix is handed to envconfig; every tag below is fully qualified already.
const EnvPrefix = "PAINTREF"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "PAINTREF_APP_ENV"
	EnvPort     = "PAINTREF_APP_PORT"
	EnvDBDSN    = "PAINTREF_DB_DSN"
	EnvDBHost   = "PAINTREF_DB_HOST"
	EnvDBUser   = "PAINTREF_DB_USER"
	EnvDBName   = "PAINTREF_DB_NAME"
	EnvRedisURL = "PAINTREF_REDIS_URL"

	EnvGCPProjectID   = "PAINTREF_GCP_PROJECT_ID"
	EnvPubSubPush     = "PAINTREF_PUBSUB_PUSH_TOPIC"
	EnvPushEnabled    = "PAINTREF_PUSH_ENABLED"
	EnvBrandCacheTTL  = "PAINTREF_BRAND_CACHE_TTL"
	EnvRankerWorkers  = "PAINTREF_RANKER_CONCURRENCY"
	EnvReorderLockTTL = "PAINTREF_REORDER_LOCK_TTL"
	EnvUseSQLite      = "PAINTREF_USE_SQLITE"
)

const defaultSQLiteDSN = "file:paintref.db?_foreign_keys=on"

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
