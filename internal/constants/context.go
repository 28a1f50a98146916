package constants

// ctxKey is a private type so context values set here cannot collide
// with keys from other packages.
type ctxKey string

const (
	// ConfigCtxKey carries the loaded *config.Config through the command
	// context.
	ConfigCtxKey ctxKey = "config"

	// StartTimeCtxKey carries the command start time for elapsed-time
	// reporting.
	StartTimeCtxKey ctxKey = "startTime"
)
