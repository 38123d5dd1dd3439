package logger

import (
    "io"
    "os"
    "sync"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// LogLevel represents the logging level
type LogLevel int

const (
    // DebugLevel logs are typically verbose
    DebugLevel LogLevel = iota
    // InfoLevel is the default logging priority
    InfoLevel
    // WarnLevel logs are warnings
    WarnLevel
    // ErrorLevel logs are high-priority
    ErrorLevel
)

var zapLevels = map[LogLevel]zapcore.Level{
    DebugLevel: zapcore.DebugLevel,
    InfoLevel:  zapcore.InfoLevel,
    WarnLevel:  zapcore.WarnLevel,
    ErrorLevel: zapcore.ErrorLevel,
}

var (
    mu           sync.RWMutex
    std          = build(InfoLevel, os.Stdout)
    currentLevel = InfoLevel
)

// ParseLevel maps a level name (e.g., "debug", "info", "warn", "error") to a LogLevel.
// Unknown names fall back to InfoLevel.
func ParseLevel(level string) LogLevel {
    switch level {
    case "debug", "DEBUG":
        return DebugLevel
    case "info", "INFO", "":
        return InfoLevel
    case "warn", "WARN", "warning", "WARNING":
        return WarnLevel
    case "error", "ERROR":
        return ErrorLevel
    default:
        return InfoLevel
    }
}

// Initialize sets up the global logger level based on input string (e.g., "debug", "info", "warn", "error")
func Initialize(level string) {
    InitializeWriter(level, os.Stdout)
}

// InitializeWriter is Initialize with an explicit destination. The terminal UI
// uses it to keep log lines off the screen.
func InitializeWriter(level string, w io.Writer) {
    lvl := ParseLevel(level)
    l := build(lvl, w)
    mu.Lock()
    old := std
    std = l
    currentLevel = lvl
    mu.Unlock()
    _ = old.Sync()
}

// Level returns the active level.
func Level() LogLevel {
    mu.RLock()
    defer mu.RUnlock()
    return currentLevel
}

// Sync flushes buffered entries. Call it before the process exits.
func Sync() {
    mu.RLock()
    defer mu.RUnlock()
    _ = std.Sync()
}

// build assembles a sugared zap logger. Debug gets the console encoder with
// caller info, every other level the JSON production encoder.
func build(lvl LogLevel, w io.Writer) *zap.SugaredLogger {
    var encCfg zapcore.EncoderConfig
    var enc zapcore.Encoder
    opts := []zap.Option{zap.AddCallerSkip(1)}
    if lvl == DebugLevel {
        encCfg = zap.NewDevelopmentEncoderConfig()
        enc = zapcore.NewConsoleEncoder(encCfg)
        opts = append(opts, zap.AddCaller())
    } else {
        encCfg = zap.NewProductionEncoderConfig()
        encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
        enc = zapcore.NewJSONEncoder(encCfg)
    }
    core := zapcore.NewCore(enc, zapcore.AddSync(w), zap.NewAtomicLevelAt(zapLevels[lvl]))
    return zap.New(core, opts...).Sugar()
}

func current() *zap.SugaredLogger {
    mu.RLock()
    defer mu.RUnlock()
    return std
}

// Package-level helpers
func Debug(format string, v ...interface{}) { current().Debugf(format, v...) }
func Info(format string, v ...interface{})  { current().Infof(format, v...) }
func Warn(format string, v ...interface{})  { current().Warnf(format, v...) }
func Error(format string, v ...interface{}) { current().Errorf(format, v...) }
