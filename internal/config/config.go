package config

type Config interface {
	EnvConfig
	OAuthConfig
	APIConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetSessionSecret() string
	GetEnv() string
}

type OAuthConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURI() string
	GetAuthorizationURL() string
	GetTokenURL() string
}

type APIConfig interface {
	GetAPIBaseURL() string
}

type mainConfig struct {
	EnvVars
}

func New() Config {
	return mainConfig{}
}
