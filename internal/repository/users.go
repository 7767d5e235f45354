package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
)

// UserRepository — интерфейс для таблицы users.
type UserRepository interface {
	// Create создаёт пользователя. Дубликат employee_id — ErrConflict.
	Create(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя по id. Если не найден — ErrNotFound.
	GetByID(ctx context.Context, id int) (*model.User, error)
	// GetByEmployeeID возвращает пользователя по табельному номеру.
	GetByEmployeeID(ctx context.Context, employeeID string) (*model.User, error)
	// List возвращает страницу пользователей и общее количество.
	// search фильтрует по name/employee_id (ILIKE), админы первыми.
	List(ctx context.Context, search string, limit, offset int) ([]model.User, int, error)
	// Update обновляет name и role; password — только если непустой.
	Update(ctx context.Context, u *model.User) error
	// Delete удаляет пользователя вместе с зависимыми записями
	// (test_results, activity_log) в одной транзакции.
	Delete(ctx context.Context, id int) error
	// UpsertByEmployeeID — атомарный insert-or-update по уникальному ключу
	// employee_id. Новая строка получает роль user и пустой пароль;
	// существующая — только новое имя (роль и пароль сохраняются).
	// Возвращает true, если строка была вставлена, false — если обновлена.
	UpsertByEmployeeID(ctx context.Context, name, employeeID string) (bool, error)
	// Count возвращает общее количество пользователей.
	Count(ctx context.Context) (int, error)
	// Recent возвращает n последних созданных пользователей.
	Recent(ctx context.Context, n int) ([]model.User, error)
}

// userRepo — реализация UserRepository.
type userRepo struct {
	db DBTX
	tx *TxRunner
}

// NewUserRepository создаёт репозиторий пользователей.
// tx нужен для каскадного удаления; может быть nil, если Delete не используется
// (например, внутри уже открытой транзакции).
func NewUserRepository(db DBTX, tx *TxRunner) UserRepository {
	return &userRepo{db: db, tx: tx}
}

// Create создаёт пользователя и заполняет u.ID.
func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (name, employee_id, role, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRow(ctx, query, u.Name, u.EmployeeID, u.Role, u.Password).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

// GetByID возвращает пользователя по id.
func (r *userRepo) GetByID(ctx context.Context, id int) (*model.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmployeeID возвращает пользователя по табельному номеру.
func (r *userRepo) GetByEmployeeID(ctx context.Context, employeeID string) (*model.User, error) {
	return r.getOne(ctx, "employee_id = $1", employeeID)
}

func (r *userRepo) getOne(ctx context.Context, where string, arg any) (*model.User, error) {
	query := `
		SELECT id, name, employee_id, role, password
		FROM users
		WHERE ` + where

	u := &model.User{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Name, &u.EmployeeID, &u.Role, &u.Password,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}

// List возвращает страницу пользователей, отсортированных
// «админы первыми, затем по имени», и общее количество с учётом фильтра.
func (r *userRepo) List(ctx context.Context, search string, limit, offset int) ([]model.User, int, error) {
	where := ""
	args := []any{}
	if search != "" {
		where = " WHERE (name ILIKE $1 OR employee_id ILIKE $1)"
		args = append(args, "%"+strings.TrimSpace(search)+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, employee_id, role
		FROM users%s
		ORDER BY CASE WHEN role = 'admin' THEN 0 ELSE 1 END, name ASC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения списка пользователей: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.EmployeeID, &u.Role); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Update обновляет name и role; password перезаписывается только непустым значением.
func (r *userRepo) Update(ctx context.Context, u *model.User) error {
	query := `UPDATE users SET name = $1, role = $2 WHERE id = $3`
	args := []any{u.Name, u.Role, u.ID}
	if u.Password != "" {
		query = `UPDATE users SET name = $1, role = $2, password = $3 WHERE id = $4`
		args = []any{u.Name, u.Role, u.Password, u.ID}
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления пользователя %d: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет пользователя и зависимые записи в одной транзакции.
// user_answers удаляются каскадом вместе с test_results (ON DELETE CASCADE).
func (r *userRepo) Delete(ctx context.Context, id int) error {
	return r.tx.RunInTx(ctx, func(db DBTX) error {
		if _, err := db.Exec(ctx, `DELETE FROM test_results WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("ошибка удаления результатов пользователя %d: %w", id, err)
		}
		if _, err := db.Exec(ctx, `DELETE FROM activity_log WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("ошибка удаления журнала пользователя %d: %w", id, err)
		}

		tag, err := db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("ошибка удаления пользователя %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// UpsertByEmployeeID — insert-or-update одной атомарной операцией.
// Классификация «вставка или обновление» берётся из сигнала самого
// хранилища (xmax = 0 для свежей строки), а не из отдельной проверки
// существования — это исключает гонку между проверкой и записью.
func (r *userRepo) UpsertByEmployeeID(ctx context.Context, name, employeeID string) (bool, error) {
	query := `
		INSERT INTO users (name, employee_id, role)
		VALUES ($1, $2, 'user')
		ON CONFLICT (employee_id)
		DO UPDATE SET name = EXCLUDED.name
		RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err := r.db.QueryRow(ctx, query, name, employeeID).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("ошибка upsert пользователя %q: %w", employeeID, err)
	}
	return inserted, nil
}

// Count возвращает общее количество пользователей.
func (r *userRepo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	return total, nil
}

// Recent возвращает n последних созданных пользователей.
func (r *userRepo) Recent(ctx context.Context, n int) ([]model.User, error) {
	query := `
		SELECT id, name, employee_id, role
		FROM users
		ORDER BY id DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения последних пользователей: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.EmployeeID, &u.Role); err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
