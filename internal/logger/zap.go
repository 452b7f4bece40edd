package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// Nop returns a logger that discards everything. Used by tests.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// defaultZapLevel defines the fallback log level when an unknown level string is provided.
const defaultZapLevel = zapcore.DebugLevel

// toZapLevel converts a textual level to zapcore.Level using known level constants.
func toZapLevel(levelStr string) zapcore.Level {
	switch levelStr {
	case InfoLevel:
		return zapcore.InfoLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return defaultZapLevel
	}
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	if format == FormatJSON {
		cfg.TimeKey = "ts"
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.TimeKey = ""
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// newCores builds the stdout core and, when a file is configured, a second core
// appending JSON lines to it. A file that cannot be opened is reported on stderr
// and skipped.
func newCores(opts Options) []zapcore.Core {
	level := zap.NewAtomicLevelAt(toZapLevel(opts.Level))
	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(opts.Format), zapcore.Lock(os.Stdout), level),
	}
	if opts.File == "" {
		return cores
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: cannot open " + opts.File + ": " + err.Error() + "\n")
		return cores
	}
	return append(cores, zapcore.NewCore(newEncoder(FormatJSON), zapcore.Lock(f), level))
}

// newZapLogger constructs a sugared zap logger from opts.
func newZapLogger(opts Options) *Logger {
	core := zapcore.NewTee(newCores(opts)...)
	return &Logger{
		SugaredLogger: zap.New(core).Sugar(),
	}
}
