package config

// EnvPrefix is intentionally empty: every variable names its full
// MERCHKIT_-prefixed key in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)
