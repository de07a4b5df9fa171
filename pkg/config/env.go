package config

// Environment names recognized by AppConfig.
const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// EnvPrefix is empty because every envconfig tag carries the full
// STOREFRONT_ name already.
const EnvPrefix = ""

// Legacy discrete DB variables accepted when STOREFRONT_DB_DSN is unset.
const (
	EnvDBDSN  = "STOREFRONT_DB_DSN"
	EnvDBHost = "STOREFRONT_DB_HOST"
	EnvDBUser = "STOREFRONT_DB_USER"
	EnvDBName = "STOREFRONT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
