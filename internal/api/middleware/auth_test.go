package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// generateToken генерирует JWT с указанными claims.
func generateToken(t *testing.T, secret, employeeID, role string, userID int, expired bool) string {
	t.Helper()

	exp := time.Now().Add(time.Hour)
	if expired {
		exp = time.Now().Add(-time.Hour)
	}

	claims := jwt.MapClaims{
		"sub":         employeeID,
		"user_id":     userID,
		"employee_id": employeeID,
		"role":        role,
		"iat":         jwt.NewNumericDate(time.Now()),
		"exp":         jwt.NewNumericDate(exp),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Не удалось подписать токен: %v", err)
	}
	return signed
}

// echoClaimsHandler — handler, фиксирующий claims из контекста.
func echoClaimsHandler(captured **AuthClaims) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTAuthValidToken(t *testing.T) {
	auth := NewJWTAuth(testSecret, testLogger())

	var claims *AuthClaims
	handler := auth.Middleware()(echoClaimsHandler(&claims))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+generateToken(t, testSecret, "ADM-1", "admin", 7, false))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Статус = %d, ожидается 200, тело: %s", rec.Code, rec.Body.String())
	}
	if claims == nil {
		t.Fatal("Claims не помещены в контекст")
	}
	if claims.UserID != 7 {
		t.Errorf("UserID = %d, ожидается 7", claims.UserID)
	}
	if claims.EmployeeID != "ADM-1" {
		t.Errorf("EmployeeID = %q, ожидается ADM-1", claims.EmployeeID)
	}
	if !claims.IsAdmin() {
		t.Error("IsAdmin() = false, ожидается true")
	}
}

func TestJWTAuthRejects(t *testing.T) {
	auth := NewJWTAuth(testSecret, testLogger())

	tests := []struct {
		name   string
		header string
	}{
		{"без заголовка", ""},
		{"не Bearer", "Basic abc"},
		{"пустой токен", "Bearer "},
		{"мусор вместо токена", "Bearer не-токен"},
		{"просроченный токен", "Bearer " + generateToken(t, testSecret, "ADM-1", "admin", 7, true)},
		{"чужой секрет", "Bearer " + generateToken(t, "other-secret", "ADM-1", "admin", 7, false)},
		{"неизвестная роль", "Bearer " + generateToken(t, testSecret, "ADM-1", "superuser", 7, false)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var claims *AuthClaims
			handler := auth.Middleware()(echoClaimsHandler(&claims))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Статус = %d, ожидается 401", rec.Code)
			}
			if claims != nil {
				t.Error("Claims попали в контекст при отклонённом запросе")
			}
		})
	}
}

func TestJWTAuthRejectsNoneAlgorithm(t *testing.T) {
	auth := NewJWTAuth(testSecret, testLogger())

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"user_id":     float64(1),
		"employee_id": "ADM-1",
		"role":        "admin",
		"exp":         jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("Не удалось подписать токен: %v", err)
	}

	var claims *AuthClaims
	handler := auth.Middleware()(echoClaimsHandler(&claims))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Статус = %d, ожидается 401 для alg=none", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	auth := NewJWTAuth(testSecret, testLogger())

	tests := []struct {
		name       string
		role       string
		wantStatus int
	}{
		{"администратор", "admin", http.StatusOK},
		{"обычный пользователь", "user", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var claims *AuthClaims
			handler := auth.Middleware()(RequireAdmin()(echoClaimsHandler(&claims)))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			req.Header.Set("Authorization", "Bearer "+generateToken(t, testSecret, "EMP-1", tt.role, 2, false))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Статус = %d, ожидается %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAdminWithoutClaims(t *testing.T) {
	var claims *AuthClaims
	handler := RequireAdmin()(echoClaimsHandler(&claims))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Статус = %d, ожидается 401 без claims", rec.Code)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	mw := APIKeyAuth("android-key", testLogger())

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{"верный ключ", "android-key", http.StatusOK},
		{"неверный ключ", "wrong", http.StatusUnauthorized},
		{"без ключа", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/android/settings", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("Статус = %d, ожидается %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/health/live", "/health/live"},
		{"/api/admin/users", "/api/admin/users"},
		{"/api/admin/users/42", "/api/admin/users/{id}"},
		{"/api/admin/questions/17", "/api/admin/questions/{id}"},
		{"/api/admin/test-history/5/answers", "/api/admin/test-history/{id}/answers"},
		{"/uploads/abc123.png", "/uploads/{filename}"},
		{"/api/android/settings/stream", "/api/android/settings/stream"},
		{"/unknown", "/unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, ожидается %q", tt.path, got, tt.want)
			}
		})
	}
}
