package config

const (
	EnvPrefix = "LYNQED"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "LYNQED_APP_ENV"

	EnvDBDSN  = "LYNQED_DB_DSN"
	EnvDBHost = "LYNQED_DB_HOST"
	EnvDBUser = "LYNQED_DB_USER"
	EnvDBName = "LYNQED_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
