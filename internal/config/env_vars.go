package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar       = "PORT"
	appNameVar       = "APP_NAME"
	clientIDVar      = "CLIENT_ID"
	clientSecretVar  = "CLIENT_SECRET"
	redirectURIVar   = "REDIRECT_URI"
	authURLVar       = "AUTHORIZATION_URL"
	tokenURLVar      = "TOKEN_URL"
	sessionSecretVar = "SESSION_SECRET"
	apiBaseURLVar    = "API_BASE_URL"
)

// requiredEnvVars are the keys that must be non-empty for the process to
// start. API_BASE_URL is deliberately absent: only the order fetcher needs
// it, and the OAuth2 flow works without it.
var requiredEnvVars = []string{
	clientIDVar,
	clientSecretVar,
	redirectURIVar,
	authURLVar,
	tokenURLVar,
	sessionSecretVar,
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}
var _ OAuthConfig = EnvVars{}
var _ APIConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8000")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Tiny Orders")
}

func (EnvVars) GetClientID() string {
	return GetEnv(clientIDVar, "")
}

func (EnvVars) GetClientSecret() string {
	return GetEnv(clientSecretVar, "")
}

func (EnvVars) GetRedirectURI() string {
	return GetEnv(redirectURIVar, "")
}

func (EnvVars) GetAuthorizationURL() string {
	return GetEnv(authURLVar, "")
}

func (EnvVars) GetTokenURL() string {
	return GetEnv(tokenURLVar, "")
}

func (EnvVars) GetSessionSecret() string {
	return GetEnv(sessionSecretVar, "")
}

// GetAPIBaseURL returns the base URL of the Tiny REST API, e.g.
// "https://api.tiny.com.br/public-api/v3". Optional.
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

// Validate returns the names of every required environment variable that is
// absent or empty. An empty slice means the configuration is complete.
func Validate() []string {
	var missing []string
	for _, key := range requiredEnvVars {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}
