package envutil

import (
	"os"
	"strconv"
	"strings"

	"cmdbridge/internal/domain"
)

// IntFromEnv reads an integer limit from the environment. Unset, empty, or
// non-positive values fall back to the hard-coded default.
func IntFromEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// ConnectTimeoutSeconds returns the protocol connect/call timeout.
func ConnectTimeoutSeconds() int {
	return IntFromEnv(domain.EnvConnectTimeoutSeconds, domain.DefaultConnectTimeoutSeconds)
}

// MaxOutputBytes returns the subprocess captured-output cap.
func MaxOutputBytes() int {
	return IntFromEnv(domain.EnvMaxOutputBytes, domain.DefaultMaxOutputBytes)
}

// SearchMaxResults returns the default search result cap.
func SearchMaxResults() int {
	return IntFromEnv(domain.EnvSearchMaxResults, domain.DefaultSearchMaxResults)
}

// GlobMaxResults returns the default glob result cap.
func GlobMaxResults() int {
	return IntFromEnv(domain.EnvGlobMaxResults, domain.DefaultGlobMaxResults)
}
