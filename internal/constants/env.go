package constants

// Environment variables
const (
	// LogLevelEnvName selects the zap level (debug, info, warn, error).
	LogLevelEnvName = "LOG_LEVEL"

	// RestHostEnvName and RestPortEnvName locate the REST server.
	RestHostEnvName = "HOMGP_HOST"
	RestPortEnvName = "HOMGP_PORT"
)

// REST server defaults
const (
	DefaultRestHost = "localhost"
	DefaultRestPort = "8080"
)
