package logger

import (
	"sync"
)

// Log levels used across the application.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures the process-wide logger.
type Options struct {
	Level  string
	Format string // console | json
	File   string // optional, appended to in addition to stdout
}

var (
	// globalLogger holds the singleton logger instance.
	globalLogger *Logger
	once         sync.Once
)

// Init builds the singleton logger from opts. The first call wins; later calls
// return the already initialized instance.
func Init(opts Options) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(opts)
	})
	return globalLogger
}

// Get returns the singleton logger, initializing it with the given level and
// console output if nothing has been initialized yet.
func Get(level string) *Logger {
	return Init(Options{Level: level, Format: FormatConsole})
}
