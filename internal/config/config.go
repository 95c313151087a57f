// Пакет config — загрузка и валидация конфигурации File Hub
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации File Hub.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Путь к корневой директории хранения файлов
	DataDir string
	// Путь к директории состояния (metadata.json, activity.json).
	// Пустая строка отключает персистентность — всё живёт в памяти.
	StateDir string
	// Максимальный размер одного файла в байтах
	MaxFileSize int64
	// Максимальное количество файлов в одном запросе загрузки
	MaxUploadFiles int
	// Лимит журнала действий
	ActivityCap int
	// Интервал фоновой сверки метаданных с диском
	SweepInterval time.Duration
	// Ключ сортировки листинга по умолчанию (name, size, date)
	DefaultSort string
	// Секрет подписи публичных ссылок. Пустая строка — секрет
	// генерируется случайно при старте (ссылки не переживут рестарт).
	ShareSecret string
	// Срок жизни публичной ссылки
	ShareTTL time.Duration
	// Путь к TLS сертификату (опционально)
	TLSCert string
	// Путь к TLS приватному ключу (опционально)
	TLSKey string
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// FH_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("FH_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("FH_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("FH_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// FH_DATA_DIR — обязательный
	cfg.DataDir, err = getEnvRequired("FH_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// FH_STATE_DIR — директория состояния (опционально)
	cfg.StateDir = getEnvDefault("FH_STATE_DIR", "")

	// FH_MAX_FILE_SIZE — максимальный размер файла (по умолчанию 100 MB)
	maxFileSize, err := getEnvInt64("FH_MAX_FILE_SIZE", 104857600)
	if err != nil {
		return nil, fmt.Errorf("FH_MAX_FILE_SIZE: %w", err)
	}
	if maxFileSize <= 0 {
		return nil, fmt.Errorf("FH_MAX_FILE_SIZE: значение должно быть положительным")
	}
	cfg.MaxFileSize = maxFileSize

	// FH_MAX_UPLOAD_FILES — лимит файлов в одном запросе (по умолчанию 10)
	maxUploadFiles, err := getEnvInt("FH_MAX_UPLOAD_FILES", 10)
	if err != nil {
		return nil, fmt.Errorf("FH_MAX_UPLOAD_FILES: %w", err)
	}
	if maxUploadFiles <= 0 {
		return nil, fmt.Errorf("FH_MAX_UPLOAD_FILES: значение должно быть положительным")
	}
	cfg.MaxUploadFiles = maxUploadFiles

	// FH_ACTIVITY_CAP — лимит журнала действий (по умолчанию 1000)
	activityCap, err := getEnvInt("FH_ACTIVITY_CAP", 1000)
	if err != nil {
		return nil, fmt.Errorf("FH_ACTIVITY_CAP: %w", err)
	}
	if activityCap <= 0 {
		return nil, fmt.Errorf("FH_ACTIVITY_CAP: значение должно быть положительным")
	}
	cfg.ActivityCap = activityCap

	// FH_SWEEP_INTERVAL — интервал фоновой сверки (по умолчанию 1h)
	cfg.SweepInterval, err = getEnvDuration("FH_SWEEP_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FH_SWEEP_INTERVAL: %w", err)
	}

	// FH_DEFAULT_SORT — ключ сортировки по умолчанию (по умолчанию name)
	cfg.DefaultSort = getEnvDefault("FH_DEFAULT_SORT", "name")
	switch cfg.DefaultSort {
	case "name", "size", "date":
	default:
		return nil, fmt.Errorf("FH_DEFAULT_SORT: недопустимое значение %q, допустимые: name, size, date", cfg.DefaultSort)
	}

	// FH_SHARE_SECRET — секрет подписи публичных ссылок (опционально)
	cfg.ShareSecret = getEnvDefault("FH_SHARE_SECRET", "")

	// FH_SHARE_TTL — срок жизни публичной ссылки (по умолчанию 24h)
	cfg.ShareTTL, err = getEnvDuration("FH_SHARE_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FH_SHARE_TTL: %w", err)
	}

	// FH_TLS_CERT / FH_TLS_KEY — TLS (опционально, только парой)
	cfg.TLSCert = getEnvDefault("FH_TLS_CERT", "")
	cfg.TLSKey = getEnvDefault("FH_TLS_KEY", "")
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		return nil, fmt.Errorf("FH_TLS_CERT и FH_TLS_KEY должны быть заданы вместе")
	}

	// FH_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FH_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FH_LOG_LEVEL: %w", err)
	}

	// FH_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("FH_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FH_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// FH_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("FH_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FH_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 6h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
