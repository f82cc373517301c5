// package shared defines shared helpers
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// LogLevelEnv names the environment variable that overrides the default log
// level (debug, info, warn, error).
const LogLevelEnv = "ILAS_LOG_LEVEL"

// NewLogger creates the application [log.Logger] with the specified [io.Writer]:
// "ilas" prefix, timestamps and caller reporting enabled. The writer defaults
// to [os.Stderr], the level to info unless ILAS_LOG_LEVEL names another one.
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{Prefix: "ilas", ReportTimestamp: true, ReportCaller: true}
	logger := log.NewWithOptions(w, opts)

	if level, err := log.ParseLevel(os.Getenv(LogLevelEnv)); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}
