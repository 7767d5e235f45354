// auth.go — middleware аутентификации FitCheck API.
// Админ-панель аутентифицируется по JWT (HS256), Android-клиент —
// по статическому API-ключу в заголовке X-API-Key.
package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apierrors "github.com/smabadi/fitcheck/backend/internal/api/errors"
	"github.com/smabadi/fitcheck/backend/internal/domain/model"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyClaims — извлечённые claims в контексте запроса.
const ContextKeyClaims contextKey = "jwt_claims"

// AuthClaims — данные аутентифицированного пользователя из JWT.
// Помещаются в контекст запроса для downstream handlers.
type AuthClaims struct {
	// UserID — локальный идентификатор пользователя (user_id).
	UserID int
	// EmployeeID — табельный номер (employee_id).
	EmployeeID string
	// Role — роль пользователя (admin, user).
	Role string
}

// IsAdmin проверяет, является ли субъект администратором.
func (c *AuthClaims) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// JWTAuth — middleware для JWT-аутентификации с симметричным секретом.
type JWTAuth struct {
	secret []byte
	logger *slog.Logger
}

// NewJWTAuth создаёт JWT middleware.
func NewJWTAuth(secret string, logger *slog.Logger) *JWTAuth {
	return &JWTAuth{
		secret: []byte(secret),
		logger: logger.With(slog.String("component", "jwt_auth")),
	}
}

// Middleware возвращает HTTP middleware для JWT-аутентификации.
// Извлекает Bearer token, валидирует подпись (HS256), извлекает claims
// и помещает их в контекст запроса.
func (j *JWTAuth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				apierrors.Unauthorized(w, "Неверный формат Authorization: ожидается Bearer <token>")
				return
			}

			tokenString := parts[1]
			if tokenString == "" {
				apierrors.Unauthorized(w, "Пустой Bearer token")
				return
			}

			claims := jwt.MapClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims,
				func(_ *jwt.Token) (any, error) { return j.secret, nil },
				jwt.WithValidMethods([]string{"HS256"}),
				jwt.WithExpirationRequired(),
			)
			if err != nil || !token.Valid {
				j.logger.Debug("JWT валидация не пройдена",
					slog.Any("error", err),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Невалидный или просроченный токен")
				return
			}

			authClaims, err := buildAuthClaims(claims)
			if err != nil {
				apierrors.Unauthorized(w, "Некорректные claims в токене")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, authClaims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// buildAuthClaims извлекает AuthClaims из raw JWT claims.
func buildAuthClaims(claims jwt.MapClaims) (*AuthClaims, error) {
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}
	employeeID, ok := claims["employee_id"].(string)
	if !ok || employeeID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	role, ok := claims["role"].(string)
	if !ok || !model.ValidRole(role) {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return &AuthClaims{
		UserID:     int(userID),
		EmployeeID: employeeID,
		Role:       role,
	}, nil
}

// RequireAdmin возвращает middleware, пропускающий только администраторов.
// Должен использоваться ПОСЛЕ JWTAuth.Middleware().
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
				return
			}

			if !claims.IsAdmin() {
				apierrors.Forbidden(w, "Недостаточно прав: требуется роль admin")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyAuth возвращает middleware, проверяющий заголовок X-API-Key.
// Используется для endpoints Android-клиента.
func APIKeyAuth(apiKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "api_key_auth"))
	expected := []byte(apiKey)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-API-Key")
			if got == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок X-API-Key")
				return
			}

			if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				log.Warn("Неверный API-ключ",
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Неверный API-ключ")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// --- Context helpers ---

// ClaimsFromContext извлекает AuthClaims из контекста запроса.
// Возвращает nil, если claims не найдены.
func ClaimsFromContext(ctx context.Context) *AuthClaims {
	claims, _ := ctx.Value(ContextKeyClaims).(*AuthClaims)
	return claims
}

// UserIDFromContext извлекает user_id из контекста запроса.
// Возвращает 0, если claims не найдены.
func UserIDFromContext(ctx context.Context) int {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return 0
	}
	return claims.UserID
}
