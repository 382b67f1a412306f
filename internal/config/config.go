package config

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
	SecurityConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetBaseURL() string
	GetBackendURL() string
	GetUpstreamURL() string
	GetMockBackend() bool
	GetRoutesFile() string
	GetLogFile() string
	GetLogLevel() string
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
	Security
}

func New() Config {
	return mainConfig{}
}
