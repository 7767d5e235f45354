package repository

import (
	"context"
	"fmt"
	"time"
)

// AppSetting — модель записи из таблицы app_settings.
type AppSetting struct {
	// Ключ настройки (backend-именование, например "mg1_enabled")
	Key string
	// Значение настройки (строковое представление, тип восстанавливается при чтении)
	Value string
	// Время последнего обновления
	UpdatedAt time.Time
}

// SettingsRepository — интерфейс для таблицы app_settings.
type SettingsRepository interface {
	// GetAll возвращает все настройки. Пустая таблица — пустой срез, не ошибка.
	GetAll(ctx context.Context) ([]AppSetting, error)
	// Upsert создаёт или перезаписывает одну настройку.
	Upsert(ctx context.Context, key, value string) error
	// UpsertAll записывает набор настроек в одной транзакции:
	// либо применяются все ключи, либо ни одного.
	UpsertAll(ctx context.Context, settings map[string]string) error
}

// settingsRepo — реализация SettingsRepository.
type settingsRepo struct {
	db DBTX
	tx *TxRunner
}

// NewSettingsRepository создаёт репозиторий настроек.
// tx нужен для UpsertAll; может быть nil, если пакетная запись не используется.
func NewSettingsRepository(db DBTX, tx *TxRunner) SettingsRepository {
	return &settingsRepo{db: db, tx: tx}
}

// GetAll возвращает все настройки, отсортированные по ключу.
func (r *settingsRepo) GetAll(ctx context.Context) ([]AppSetting, error) {
	query := `
		SELECT setting_key, setting_value, updated_at
		FROM app_settings
		ORDER BY setting_key`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения app_settings: %w", err)
	}
	defer rows.Close()

	var settings []AppSetting
	for rows.Next() {
		var s AppSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования app_settings: %w", err)
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// Upsert создаёт или обновляет настройку (INSERT ... ON CONFLICT DO UPDATE).
// Запись одного ключа атомарна сама по себе — для конкурентных писателей
// с непересекающимися ключами транзакция не нужна.
func (r *settingsRepo) Upsert(ctx context.Context, key, value string) error {
	return upsertSetting(ctx, r.db, key, value)
}

// UpsertAll записывает все ключи в одной транзакции (all-or-nothing):
// при ошибке частично применённые ключи откатываются.
func (r *settingsRepo) UpsertAll(ctx context.Context, settings map[string]string) error {
	return r.tx.RunInTx(ctx, func(db DBTX) error {
		for key, value := range settings {
			if err := upsertSetting(ctx, db, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertSetting(ctx context.Context, db DBTX, key, value string) error {
	query := `
		INSERT INTO app_settings (setting_key, setting_value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE
		SET setting_value = EXCLUDED.setting_value,
			updated_at = NOW()`

	if _, err := db.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("ошибка сохранения app_settings[%s]: %w", key, err)
	}
	return nil
}
