package domain

const (
	DefaultConnectTimeoutSeconds = 30
	DefaultMaxOutputBytes        = 10 * 1024 * 1024
	DefaultSearchMaxResults      = 100
	DefaultGlobMaxResults        = 100
	DefaultReadLimitLines        = 2000
	DefaultColonMinParts         = 3

	EnvConnectTimeoutSeconds = "CMDBRIDGE_MCP_TIMEOUT_SECONDS"
	EnvMaxOutputBytes        = "CMDBRIDGE_MAX_OUTPUT_BYTES"
	EnvSearchMaxResults      = "CMDBRIDGE_SEARCH_MAX_RESULTS"
	EnvGlobMaxResults        = "CMDBRIDGE_GLOB_MAX_RESULTS"

	// ScriptsDirName is the per-skill directory holding executable scripts.
	ScriptsDirName = "scripts"
)
