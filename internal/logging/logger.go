package logging

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent.
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "LANPROBE_LOG_LEVEL"

// dumpLimit caps how many payload bytes are rendered into a log entry
const dumpLimit = 256

// Initialize creates the global logger with the specified level.
// If level is empty, LANPROBE_LOG_LEVEL is consulted; if that is empty too,
// a no-op logger is installed.
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = built
	return nil
}

// parseLevel maps a level name to a zap level. Unknown names map to info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// setLogger replaces the global logger. Passing nil installs a no-op logger.
func setLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// getLogger returns the global logger instance
func getLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	getLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	getLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	getLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	getLogger().Error(msg, fields...)
}

// LogSession logs a discovery session lifecycle event
func LogSession(sessionID string, event string, fields ...zap.Field) {
	all := make([]zap.Field, 0, len(fields)+2)
	all = append(all, zap.String("session_id", sessionID), zap.String("event", event))
	all = append(all, fields...)
	Debug("Discovery session", all...)
}

// LogDatagram logs a datagram sent or received on a discovery socket
func LogDatagram(direction string, remote string, payload []byte) {
	if !getLogger().Core().Enabled(zapcore.DebugLevel) {
		return
	}
	Debug("Datagram",
		zap.String("direction", direction),
		zap.String("remote_addr", remote),
		zap.Int("length", len(payload)),
		zap.String("hex", hexDump(payload)),
		zap.String("ascii", asciiDump(payload)),
	)
}

func hexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > dumpLimit {
		return hex.EncodeToString(data[:dumpLimit]) + "..."
	}
	return hex.EncodeToString(data)
}

func asciiDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if len(data) > dumpLimit {
		data = data[:dumpLimit]
	}
	result := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			result[i] = b
		} else {
			result[i] = '.'
		}
	}
	return string(result)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
