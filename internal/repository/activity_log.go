package repository

import (
	"context"
	"fmt"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
)

// ActivityLogRepository — интерфейс для таблицы activity_log (append-only).
type ActivityLogRepository interface {
	// Insert добавляет запись аудита. userID — nil для системных событий.
	Insert(ctx context.Context, activityType, description string, userID *int) error
	// ListRecent возвращает n последних записей с именем инициатора.
	ListRecent(ctx context.Context, n int) ([]model.ActivityEntry, error)
}

// activityLogRepo — реализация ActivityLogRepository.
type activityLogRepo struct {
	db DBTX
}

// NewActivityLogRepository создаёт репозиторий журнала активности.
func NewActivityLogRepository(db DBTX) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

// Insert добавляет запись аудита.
func (r *activityLogRepo) Insert(ctx context.Context, activityType, description string, userID *int) error {
	query := `
		INSERT INTO activity_log (activity_type, description, user_id)
		VALUES ($1, $2, $3)`

	if _, err := r.db.Exec(ctx, query, activityType, description, userID); err != nil {
		return fmt.Errorf("ошибка записи в activity_log: %w", err)
	}
	return nil
}

// ListRecent возвращает n последних записей, новые первыми.
func (r *activityLogRepo) ListRecent(ctx context.Context, n int) ([]model.ActivityEntry, error) {
	query := `
		SELECT al.id, al.activity_type, al.description, al.user_id, al.timestamp,
			COALESCE(u.name, '')
		FROM activity_log al
		LEFT JOIN users u ON al.user_id = u.id
		ORDER BY al.timestamp DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения activity_log: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityEntry
	for rows.Next() {
		var e model.ActivityEntry
		if err := rows.Scan(&e.ID, &e.ActivityType, &e.Description, &e.UserID, &e.Timestamp, &e.ActorName); err != nil {
			return nil, fmt.Errorf("ошибка сканирования activity_log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
