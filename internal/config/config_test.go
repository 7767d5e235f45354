package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения и возвращает функцию для их очистки.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
func minimalEnvs() map[string]string {
	return map[string]string{
		"FC_DB_HOST":         "localhost",
		"FC_DB_NAME":         "fitcheck",
		"FC_DB_USER":         "fitcheck",
		"FC_DB_PASSWORD":     "secret",
		"FC_JWT_SECRET":      "jwt-secret",
		"FC_ANDROID_API_KEY": "api-key",
		"FC_HR_API_URL":      "https://hr.example.com/api/employees",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	// Проверяем значения по умолчанию
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, ожидается localhost", cfg.DBHost)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.DBSSLMode != "disable" {
		t.Errorf("DBSSLMode = %q, ожидается disable", cfg.DBSSLMode)
	}
	if cfg.JWTExpire != 24*time.Hour {
		t.Errorf("JWTExpire = %v, ожидается 24h", cfg.JWTExpire)
	}
	if cfg.HRTimeout != 30*time.Second {
		t.Errorf("HRTimeout = %v, ожидается 30s", cfg.HRTimeout)
	}
	if cfg.HRSyncChunkSize != 20 {
		t.Errorf("HRSyncChunkSize = %d, ожидается 20", cfg.HRSyncChunkSize)
	}
	if cfg.UploadDir != "./uploads" {
		t.Errorf("UploadDir = %q, ожидается ./uploads", cfg.UploadDir)
	}
	if cfg.UploadMaxSize != 5*1024*1024 {
		t.Errorf("UploadMaxSize = %d, ожидается 5 МБ", cfg.UploadMaxSize)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	envs := minimalEnvs()
	envs["FC_PORT"] = "9000"
	envs["FC_LOG_LEVEL"] = "debug"
	envs["FC_LOG_FORMAT"] = "text"
	envs["FC_DB_PORT"] = "5433"
	envs["FC_DB_SSL_MODE"] = "require"
	envs["FC_JWT_EXPIRE"] = "2h"
	envs["FC_HR_TIMEOUT"] = "10s"
	envs["FC_HR_SYNC_CHUNK_SIZE"] = "50"
	envs["FC_UPLOAD_DIR"] = "/var/lib/fitcheck/uploads"
	envs["FC_ALLOWED_ORIGINS"] = "https://admin.example.com, https://staging.example.com"
	envs["FC_SHUTDOWN_TIMEOUT"] = "10s"
	setEnvs(t, envs)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, ожидается 9000", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, ожидается Debug", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("LogFormat = %q, ожидается text", cfg.LogFormat)
	}
	if cfg.DBPort != 5433 {
		t.Errorf("DBPort = %d, ожидается 5433", cfg.DBPort)
	}
	if cfg.DBSSLMode != "require" {
		t.Errorf("DBSSLMode = %q, ожидается require", cfg.DBSSLMode)
	}
	if cfg.JWTExpire != 2*time.Hour {
		t.Errorf("JWTExpire = %v, ожидается 2h", cfg.JWTExpire)
	}
	if cfg.HRTimeout != 10*time.Second {
		t.Errorf("HRTimeout = %v, ожидается 10s", cfg.HRTimeout)
	}
	if cfg.HRSyncChunkSize != 50 {
		t.Errorf("HRSyncChunkSize = %d, ожидается 50", cfg.HRSyncChunkSize)
	}
	if cfg.UploadDir != "/var/lib/fitcheck/uploads" {
		t.Errorf("UploadDir = %q, ожидается /var/lib/fitcheck/uploads", cfg.UploadDir)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://admin.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	requiredVars := []string{
		"FC_DB_HOST", "FC_DB_NAME", "FC_DB_USER", "FC_DB_PASSWORD",
		"FC_JWT_SECRET", "FC_ANDROID_API_KEY", "FC_HR_API_URL",
	}

	for _, missing := range requiredVars {
		t.Run(missing, func(t *testing.T) {
			envs := minimalEnvs()
			delete(envs, missing)
			// Очищаем все переменные окружения
			for k := range minimalEnvs() {
				os.Unsetenv(k)
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при отсутствии %s", missing)
			}
		})
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"ноль", "0"},
		{"выше диапазона", "70000"},
		{"не число", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs["FC_PORT"] = tt.value
			for k := range minimalEnvs() {
				os.Unsetenv(k)
			}
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при FC_PORT=%q", tt.value)
			}
		})
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	envs := minimalEnvs()
	envs["FC_LOG_LEVEL"] = "verbose"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при FC_LOG_LEVEL=verbose")
	}
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	envs := minimalEnvs()
	envs["FC_LOG_FORMAT"] = "xml"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при FC_LOG_FORMAT=xml")
	}
}

func TestLoad_InvalidSSLMode(t *testing.T) {
	envs := minimalEnvs()
	envs["FC_DB_SSL_MODE"] = "prefer"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при FC_DB_SSL_MODE=prefer")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	envs := minimalEnvs()
	envs["FC_HR_TIMEOUT"] = "abc"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при FC_HR_TIMEOUT=abc")
	}
}

func TestLoad_InvalidChunkSize(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"слишком маленький", "0"},
		{"слишком большой", "1001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envs := minimalEnvs()
			envs["FC_HR_SYNC_CHUNK_SIZE"] = tt.value
			setEnvs(t, envs)

			_, err := Load()
			if err == nil {
				t.Errorf("Load() не вернул ошибку при FC_HR_SYNC_CHUNK_SIZE=%q", tt.value)
			}
		})
	}
}

func TestLoad_InvalidHRURL(t *testing.T) {
	envs := minimalEnvs()
	envs["FC_HR_API_URL"] = "не урл"
	setEnvs(t, envs)

	_, err := Load()
	if err == nil {
		t.Error("Load() не вернул ошибку при некорректном FC_HR_API_URL")
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.example.com",
		DBPort:     5432,
		DBName:     "fitcheck",
		DBUser:     "user",
		DBPassword: "pass",
		DBSSLMode:  "disable",
	}
	expected := "host=db.example.com port=5432 dbname=fitcheck user=user password=pass sslmode=disable"
	if dsn := cfg.DatabaseDSN(); dsn != expected {
		t.Errorf("DatabaseDSN() = %q, ожидается %q", dsn, expected)
	}
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		name   string
		format string
	}{
		{"json", "json"},
		{"text", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				LogLevel:  slog.LevelInfo,
				LogFormat: tt.format,
			}
			logger := SetupLogger(cfg)
			if logger == nil {
				t.Error("SetupLogger() вернул nil")
			}
		})
	}
}

func TestParseCSV(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"", nil},
		{"one", []string{"one"}},
		{"one, two", []string{"one", "two"}},
		{"one,,two,", []string{"one", "two"}},
		{" one , two , three ", []string{"one", "two", "three"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := parseCSV(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("parseCSV(%q) = %v (len %d), ожидается %v (len %d)",
					tt.input, result, len(result), tt.expected, len(tt.expected))
			}
			for i, v := range result {
				if v != tt.expected[i] {
					t.Errorf("parseCSV(%q)[%d] = %q, ожидается %q", tt.input, i, v, tt.expected[i])
				}
			}
		})
	}
}
