package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/repository"
)

// fakeAuthUserRepo отдаёт пользователей по табельному номеру.
type fakeAuthUserRepo struct {
	repository.UserRepository
	users map[string]*model.User
}

func (f *fakeAuthUserRepo) GetByEmployeeID(_ context.Context, employeeID string) (*model.User, error) {
	if u, ok := f.users[employeeID]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("секретный-пароль"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	repo := &fakeAuthUserRepo{users: map[string]*model.User{
		"ADM-1": {ID: 1, Name: "Админ", EmployeeID: "ADM-1", Role: model.RoleAdmin, Password: string(hash)},
		"EMP-1": {ID: 2, Name: "Сотрудник", EmployeeID: "EMP-1", Role: model.RoleUser},
	}}
	return NewAuthService(repo, "test-secret", time.Hour, testLogger())
}

func TestLoginAdmin(t *testing.T) {
	svc := newAuthService(t)

	token, user, err := svc.LoginAdmin(context.Background(), "ADM-1", "секретный-пароль")
	if err != nil {
		t.Fatalf("LoginAdmin() ошибка: %v", err)
	}
	if user.ID != 1 {
		t.Errorf("ID = %d, хотели 1", user.ID)
	}

	// Токен валиден и содержит данные пользователя
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !parsed.Valid {
		t.Fatalf("Невалидный токен: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["employee_id"] != "ADM-1" {
		t.Errorf("employee_id в токене = %v, хотели ADM-1", claims["employee_id"])
	}
	if claims["role"] != model.RoleAdmin {
		t.Errorf("role в токене = %v, хотели admin", claims["role"])
	}
}

func TestLoginAdminFailures(t *testing.T) {
	svc := newAuthService(t)

	tests := []struct {
		name       string
		employeeID string
		password   string
		wantErr    error
	}{
		{"неверный пароль", "ADM-1", "не-тот-пароль", ErrInvalidCredentials},
		{"несуществующий пользователь", "NOPE", "пароль", ErrInvalidCredentials},
		{"не администратор", "EMP-1", "пароль", ErrForbidden},
		{"пустой пароль", "ADM-1", "", ErrValidation},
		{"пустой табельный номер", "", "пароль", ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.LoginAdmin(context.Background(), tt.employeeID, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("LoginAdmin() ошибка = %v, хотели %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoginEmployee(t *testing.T) {
	svc := newAuthService(t)

	user, err := svc.LoginEmployee(context.Background(), "EMP-1")
	if err != nil {
		t.Fatalf("LoginEmployee() ошибка: %v", err)
	}
	if user.Name != "Сотрудник" {
		t.Errorf("Name = %q, хотели %q", user.Name, "Сотрудник")
	}

	if _, err := svc.LoginEmployee(context.Background(), "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoginEmployee(NOPE) ошибка = %v, хотели ErrNotFound", err)
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("пароль")
	if err != nil {
		t.Fatalf("HashPassword() ошибка: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("пароль")); err != nil {
		t.Errorf("Хэш не совпадает с паролем: %v", err)
	}
}
