package config

// EnvPrefix is passed to envconfig.Process; the struct tags already carry the
// full variable names, so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "LOCALDROP_DB_DSN"
	EnvDBHost = "LOCALDROP_DB_HOST"
	EnvDBUser = "LOCALDROP_DB_USER"
	EnvDBName = "LOCALDROP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
