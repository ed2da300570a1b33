package config

// EnvPrefix is the envconfig prefix; individual fields carry explicit names so
// this stays empty on purpose.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv         = "PACKLANE_APP_ENV"
	EnvPort           = "PACKLANE_APP_PORT"
	EnvDBDSN          = "PACKLANE_DB_DSN"
	EnvDBHost         = "PACKLANE_DB_HOST"
	EnvDBUser         = "PACKLANE_DB_USER"
	EnvDBName         = "PACKLANE_DB_NAME"
	EnvRedisURL       = "PACKLANE_REDIS_URL"
	EnvSessionSecret  = "PACKLANE_SESSION_SECRET"
	EnvSessionIssuer  = "PACKLANE_SESSION_ISSUER"
	EnvCartServiceURL = "PACKLANE_CART_SERVICE_URL"
	EnvBundleTiers    = "PACKLANE_BUNDLE_TIERS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
