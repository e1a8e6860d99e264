package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var log *slog.Logger

// Init инициализирует глобальный логгер.
// env: "development" (текст, debug) или любое другое значение (JSON).
// level переопределяет уровень, если задан ("debug", "info", "warn", "error").
func Init(env, level string) {
	InitWithWriter(env, level, os.Stdout)
}

// InitWithWriter - то же, что Init, но с произвольным writer (для тестов)
func InitWithWriter(env, level string, w io.Writer) {
	opts := &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: env == "development",
	}

	if env == "development" {
		opts.Level = slog.LevelDebug
	}
	if lvl, ok := parseLevel(level); ok {
		opts.Level = lvl
	}

	var handler slog.Handler
	if env == "development" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	log = slog.New(handler)
	slog.SetDefault(log)
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// GetLogger возвращает глобальный логгер
func GetLogger() *slog.Logger {
	if log == nil {
		Init("development", "")
	}
	return log
}

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

// Fatal логирует ошибку и завершает программу
func Fatal(msg string, args ...any) {
	GetLogger().Error(msg, args...)
	os.Exit(1)
}

// With создает логгер с дополнительными полями
func With(args ...any) *slog.Logger {
	return GetLogger().With(args...)
}

// WithError создает логгер с полем error
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}

// WorkerLog логирует итерацию фонового воркера
func WorkerLog(worker, operation string, err error, args ...any) {
	fields := append([]any{
		"worker", worker,
		"operation", operation,
	}, args...)

	if err != nil {
		fields = append(fields, "error", err.Error())
		GetLogger().Error("worker operation failed", fields...)
	} else {
		GetLogger().Info("worker operation completed", fields...)
	}
}
