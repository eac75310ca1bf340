package config

// EnvPrefix is handed to envconfig; every field carries its full variable name.
const EnvPrefix = "SOCIETYHUB"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "SOCIETYHUB_APP_ENV"
	EnvPort         = "SOCIETYHUB_APP_PORT"
	EnvDBDSN        = "SOCIETYHUB_DB_DSN"
	EnvDBHost       = "SOCIETYHUB_DB_HOST"
	EnvDBUser       = "SOCIETYHUB_DB_USER"
	EnvDBName       = "SOCIETYHUB_DB_NAME"
	EnvDBPassword   = "SOCIETYHUB_DB_PASSWORD"
	EnvRedisURL     = "SOCIETYHUB_REDIS_URL"
	EnvJWTSecret    = "SOCIETYHUB_JWT_SECRET"
	EnvJWTIssuer    = "SOCIETYHUB_JWT_ISSUER"
	EnvCronInterval = "SOCIETYHUB_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
