// auth.go — сервис аутентификации.
//
// Админ-панель: вход по табельному номеру и паролю (bcrypt),
// выдача HS256 JWT. Android-клиент: вход по одному табельному номеру
// (доступ к API защищён общим API-ключом, пароля у рядовых
// пользователей нет).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/repository"
)

// AuthService — бизнес-логика входа и выдачи токенов.
type AuthService struct {
	users    repository.UserRepository
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users repository.UserRepository, secret string, tokenTTL time.Duration, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger.With(slog.String("component", "auth")),
	}
}

// LoginAdmin проверяет учётные данные администратора и выдаёт JWT.
// Несуществующий пользователь и неверный пароль неразличимы для клиента.
func (s *AuthService) LoginAdmin(ctx context.Context, employeeID, password string) (string, *model.User, error) {
	if employeeID == "" || password == "" {
		return "", nil, fmt.Errorf("%w: табельный номер и пароль обязательны", ErrValidation)
	}

	user, err := s.users.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if user.Role != model.RoleAdmin {
		return "", nil, ErrForbidden
	}
	if user.Password == "" {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.logger.Warn("Неудачная попытка входа", slog.String("employee_id", employeeID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, fmt.Errorf("выдача токена: %w", err)
	}

	s.logger.Info("Администратор вошёл в систему", slog.String("employee_id", employeeID))
	return token, user, nil
}

// LoginEmployee — вход Android-клиента по табельному номеру.
func (s *AuthService) LoginEmployee(ctx context.Context, employeeID string) (*model.User, error) {
	if employeeID == "" {
		return nil, fmt.Errorf("%w: табельный номер обязателен", ErrValidation)
	}

	user, err := s.users.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("поиск пользователя: %w", err)
	}
	return user, nil
}

// issueToken выдаёт подписанный HS256 токен с данными пользователя.
func (s *AuthService) issueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":         fmt.Sprintf("%d", user.ID),
		"user_id":     user.ID,
		"employee_id": user.EmployeeID,
		"role":        user.Role,
		"iat":         now.Unix(),
		"exp":         now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// HashPassword возвращает bcrypt-хэш пароля для хранения в БД.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("хэширование пароля: %w", err)
	}
	return string(hash), nil
}
