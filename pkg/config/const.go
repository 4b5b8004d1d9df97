package config

// EnvPrefix is applied by envconfig on top of the explicit tags; keeping it
// empty-safe means we can reference variables by their full names everywhere.
const EnvPrefix = "TALLER"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv      = "TALLER_APP_ENV"
	EnvAppPort     = "TALLER_APP_PORT"
	EnvLogLevel    = "TALLER_LOG_LEVEL"
	EnvAutoMigrate = "TALLER_AUTO_MIGRATE"

	EnvDBDSN      = "TALLER_DB_DSN"
	EnvDBHost     = "TALLER_DB_HOST"
	EnvDBPort     = "TALLER_DB_PORT"
	EnvDBUser     = "TALLER_DB_USER"
	EnvDBPassword = "TALLER_DB_PASSWORD"
	EnvDBName     = "TALLER_DB_NAME"
	EnvDBSSLMode  = "TALLER_DB_SSLMODE"

	EnvRedisURL = "TALLER_REDIS_URL"

	EnvJWTSecret     = "TALLER_JWT_SECRET"
	EnvJWTIssuer     = "TALLER_JWT_ISSUER"
	EnvJWTExpiration = "TALLER_JWT_EXPIRATION_MINUTES"
)

// legacyDBEnvVars are the discrete connection variables accepted in place of a
// full DSN, kept for parity with older deploy manifests.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
