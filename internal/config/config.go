// Пакет config — загрузка и валидация конфигурации FitCheck Backend
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации FitCheck Backend.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Разрешённые Origin для CORS (через запятую; пусто — все)
	AllowedOrigins []string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Аутентификация ---

	// Секрет подписи JWT (HS256)
	JWTSecret string
	// Время жизни JWT
	JWTExpire time.Duration
	// API-ключ Android-клиента (заголовок X-API-Key)
	AndroidAPIKey string

	// --- HR API ---

	// Полный URL endpoint'а ростера сотрудников
	HRAPIURL string
	// Таймаут запроса к HR API
	HRTimeout time.Duration
	// Размер чанка синхронизации (степень параллелизма upsert'ов)
	HRSyncChunkSize int

	// --- Загрузка файлов ---

	// Каталог хранения загруженных изображений
	UploadDir string
	// Максимальный размер загружаемого файла в байтах
	UploadMaxSize int64

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// FC_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("FC_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("FC_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("FC_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// FC_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FC_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FC_LOG_LEVEL: %w", err)
	}

	// FC_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("FC_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FC_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// FC_ALLOWED_ORIGINS — список Origin для CORS (опционально)
	cfg.AllowedOrigins = parseCSV(getEnvDefault("FC_ALLOWED_ORIGINS", ""))

	// --- PostgreSQL ---

	// FC_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("FC_DB_HOST")
	if err != nil {
		return nil, err
	}

	// FC_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("FC_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("FC_DB_PORT: %w", err)
	}

	// FC_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("FC_DB_NAME")
	if err != nil {
		return nil, err
	}

	// FC_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("FC_DB_USER")
	if err != nil {
		return nil, err
	}

	// FC_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("FC_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// FC_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("FC_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("FC_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Аутентификация ---

	// FC_JWT_SECRET — обязательный
	cfg.JWTSecret, err = getEnvRequired("FC_JWT_SECRET")
	if err != nil {
		return nil, err
	}

	// FC_JWT_EXPIRE — время жизни токена (по умолчанию 24h)
	cfg.JWTExpire, err = getEnvDuration("FC_JWT_EXPIRE", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FC_JWT_EXPIRE: %w", err)
	}

	// FC_ANDROID_API_KEY — обязательный
	cfg.AndroidAPIKey, err = getEnvRequired("FC_ANDROID_API_KEY")
	if err != nil {
		return nil, err
	}

	// --- HR API ---

	// FC_HR_API_URL — обязательный
	cfg.HRAPIURL, err = getEnvRequired("FC_HR_API_URL")
	if err != nil {
		return nil, err
	}
	if _, err := url.ParseRequestURI(cfg.HRAPIURL); err != nil {
		return nil, fmt.Errorf("FC_HR_API_URL: некорректный URL %q", cfg.HRAPIURL)
	}

	// FC_HR_TIMEOUT — таймаут запроса к HR API (по умолчанию 30s)
	cfg.HRTimeout, err = getEnvDuration("FC_HR_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FC_HR_TIMEOUT: %w", err)
	}

	// FC_HR_SYNC_CHUNK_SIZE — размер чанка синхронизации (по умолчанию 20)
	cfg.HRSyncChunkSize, err = getEnvInt("FC_HR_SYNC_CHUNK_SIZE", 20)
	if err != nil {
		return nil, fmt.Errorf("FC_HR_SYNC_CHUNK_SIZE: %w", err)
	}
	if cfg.HRSyncChunkSize < 1 || cfg.HRSyncChunkSize > 1000 {
		return nil, fmt.Errorf("FC_HR_SYNC_CHUNK_SIZE: значение %d вне допустимого диапазона 1-1000", cfg.HRSyncChunkSize)
	}

	// --- Загрузка файлов ---

	// FC_UPLOAD_DIR — каталог загрузок (по умолчанию ./uploads)
	cfg.UploadDir = getEnvDefault("FC_UPLOAD_DIR", "./uploads")

	// FC_UPLOAD_MAX_SIZE — максимальный размер файла в байтах (по умолчанию 5 МБ)
	maxSize, err := getEnvInt("FC_UPLOAD_MAX_SIZE", 5*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("FC_UPLOAD_MAX_SIZE: %w", err)
	}
	if maxSize < 1 {
		return nil, fmt.Errorf("FC_UPLOAD_MAX_SIZE: значение должно быть положительным")
	}
	cfg.UploadMaxSize = int64(maxSize)

	// --- Graceful shutdown ---

	// FC_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("FC_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FC_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
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

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
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

// parseCSV разбирает строку, разделённую запятыми, на срез строк.
// Пробелы вокруг элементов убираются, пустые элементы игнорируются.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
