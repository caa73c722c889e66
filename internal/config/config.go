package config

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetSnykAPIBaseURL() string
	GetSnykAPIVersion() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Session
}

func New() Config {
	return mainConfig{}
}
