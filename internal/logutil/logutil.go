package logutil

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = newLogger(zapcore.InfoLevel, "")
)

// Init reconfigures the package logger. level is one of debug, info, warn,
// error; filePath enables an additional rotated JSON log file when non-empty.
func Init(level, filePath string) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(parseLevel(level), filePath)
}

// Sync flushes any buffered log entries.
func Sync() {
	mu.RLock()
	l := logger
	mu.RUnlock()
	_ = l.Sync()
}

// Debug logs a structured debug message.
func Debug(msg string, fields map[string]interface{}) {
	current().Debug(msg, fieldList(fields)...)
}

// Info logs a structured info message.
func Info(msg string, fields map[string]interface{}) {
	current().Info(msg, fieldList(fields)...)
}

// Warn logs a structured warning message.
func Warn(msg string, fields map[string]interface{}) {
	current().Warn(msg, fieldList(fields)...)
}

// Error logs a structured error message including the error string.
func Error(msg string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	current().Error(msg, fieldList(fields)...)
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func fieldList(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func newLogger(level zapcore.Level, filePath string) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "message"
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	jsonEncoder := zapcore.NewJSONEncoder(encoderConfig)

	// Console output goes to stderr so streamed answers on stdout stay clean.
	consoleCore := zapcore.NewCore(jsonEncoder, zapcore.Lock(os.Stderr), level)
	if filePath == "" {
		return zap.New(consoleCore, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	rotator := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	fileCore := zapcore.NewCore(jsonEncoder, zapcore.AddSync(rotator), level)
	return zap.New(zapcore.NewTee(fileCore, consoleCore), zap.AddCaller(), zap.AddCallerSkip(1))
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
