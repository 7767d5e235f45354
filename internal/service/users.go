// users.go — сервис управления пользователями.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/repository"
)

// UsersService — бизнес-логика CRUD пользователей.
type UsersService struct {
	repo         repository.UserRepository
	activityRepo repository.ActivityLogRepository
	logger       *slog.Logger
}

// NewUsersService создаёт сервис пользователей.
func NewUsersService(repo repository.UserRepository, activityRepo repository.ActivityLogRepository, logger *slog.Logger) *UsersService {
	return &UsersService{
		repo:         repo,
		activityRepo: activityRepo,
		logger:       logger.With(slog.String("component", "users")),
	}
}

// Create создаёт пользователя. Пароль хэшируется bcrypt;
// администратору пароль обязателен, рядовому пользователю — нет.
func (s *UsersService) Create(ctx context.Context, name, employeeID, role, password string, actor *model.User) (*model.User, error) {
	name = strings.TrimSpace(name)
	employeeID = strings.TrimSpace(employeeID)

	if name == "" || employeeID == "" {
		return nil, fmt.Errorf("%w: имя и табельный номер обязательны", ErrValidation)
	}
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("%w: недопустимая роль %q", ErrValidation, role)
	}
	if role == model.RoleAdmin && password == "" {
		return nil, fmt.Errorf("%w: администратору требуется пароль", ErrValidation)
	}

	hashed := ""
	if password != "" {
		var err error
		if hashed, err = HashPassword(password); err != nil {
			return nil, err
		}
	}

	user := &model.User{
		Name:       name,
		EmployeeID: employeeID,
		Role:       role,
		Password:   hashed,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: табельный номер %s уже занят", ErrConflict, employeeID)
		}
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	s.logger.Info("Пользователь создан",
		slog.Int("id", user.ID),
		slog.String("employee_id", employeeID),
		slog.String("role", role),
	)
	s.logActivity(ctx, model.ActivityUserCreated,
		fmt.Sprintf("Создан пользователь %s (%s)", name, employeeID), actor)

	return user, nil
}

// Get возвращает пользователя по id.
func (s *UsersService) Get(ctx context.Context, id int) (*model.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return user, nil
}

// List возвращает страницу пользователей и общее количество.
func (s *UsersService) List(ctx context.Context, search string, limit, offset int) ([]model.User, int, error) {
	users, total, err := s.repo.List(ctx, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("список пользователей: %w", err)
	}
	return users, total, nil
}

// Update обновляет имя, роль и (опционально) пароль пользователя.
func (s *UsersService) Update(ctx context.Context, id int, name, role, password string, actor *model.User) (*model.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: имя обязательно", ErrValidation)
	}
	if !model.ValidRole(role) {
		return nil, fmt.Errorf("%w: недопустимая роль %q", ErrValidation, role)
	}

	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.Role = role
	user.Password = ""
	if password != "" {
		if user.Password, err = HashPassword(password); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление пользователя: %w", err)
	}

	s.logger.Info("Пользователь обновлён", slog.Int("id", id))
	return s.Get(ctx, id)
}

// Delete удаляет пользователя вместе с его результатами и записями журнала.
func (s *UsersService) Delete(ctx context.Context, id int, actor *model.User) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if actor != nil && actor.ID == id {
		return fmt.Errorf("%w: нельзя удалить собственную учётную запись", ErrValidation)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("удаление пользователя: %w", err)
	}

	s.logger.Info("Пользователь удалён",
		slog.Int("id", id),
		slog.String("employee_id", user.EmployeeID),
	)
	s.logActivity(ctx, model.ActivityUserDeleted,
		fmt.Sprintf("Удалён пользователь %s (%s)", user.Name, user.EmployeeID), actor)
	return nil
}

// logActivity пишет запись журнала. Best-effort: сбой не влияет на операцию.
func (s *UsersService) logActivity(ctx context.Context, activityType, description string, actor *model.User) {
	var actorID *int
	if actor != nil {
		actorID = &actor.ID
	}
	if err := s.activityRepo.Insert(ctx, activityType, description, actorID); err != nil {
		s.logger.Warn("Ошибка записи в журнал активности", slog.String("error", err.Error()))
	}
}
