package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	snykAPIVar    = "SNYK_API_BASE_URL"
	snykVerVar    = "SNYK_API_VERSION"
	defaultAPIURL = "https://api.snyk.io"
	defaultAPIVer = "2024-10-15"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "AuditLens")
}

// GetSnykAPIBaseURL returns the base URL of the upstream audit-log API.
// Overridable for testing against a local stub.
func (EnvVars) GetSnykAPIBaseURL() string {
	return GetEnv(snykAPIVar, defaultAPIURL)
}

// GetSnykAPIVersion returns the pinned REST API version used when a
// session does not supply its own.
func (EnvVars) GetSnykAPIVersion() string {
	return GetEnv(snykVerVar, defaultAPIVer)
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
