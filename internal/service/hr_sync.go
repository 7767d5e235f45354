// hr_sync.go — сервис сверки пользователей с внешним HR API.
//
// Сверка (reconciliation):
//  1. Получить полный ростер сотрудников из HR API (один GET с таймаутом)
//  2. Разбить ростер на чанки (FC_HR_SYNC_CHUNK_SIZE)
//  3. Внутри чанка — параллельные upsert'ы по employee_id;
//     классификация «создан/обновлён» приходит из самого хранилища
//  4. Записи без имени или табельного номера пропускаются
//
// Сверка не транзакционна на весь прогон: upsert идемпотентен, повторный
// запуск после сбоя безопасен. Локальные пользователи никогда не удаляются.
//
// Prometheus-метрики:
//   - fc_hr_sync_duration_seconds — длительность синхронизации
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/hrclient"
	"github.com/smabadi/fitcheck/backend/internal/repository"
)

// Prometheus-метрики синхронизации с HR.
var hrSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "fc_hr_sync_duration_seconds",
	Help:    "Длительность синхронизации пользователей с HR API",
	Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s … ~51s
})

// EmployeeFetcher — источник ростера сотрудников (hrclient.Client).
type EmployeeFetcher interface {
	FetchEmployees(ctx context.Context) ([]model.ExternalEmployee, error)
}

// Итог обработки одной записи ростера.
type upsertOutcome int

const (
	outcomeAdded upsertOutcome = iota
	outcomeUpdated
	outcomeSkipped
)

// HRSyncService — сервис синхронизации пользователей с HR API.
type HRSyncService struct {
	fetcher      EmployeeFetcher
	users        repository.UserRepository
	activityRepo repository.ActivityLogRepository
	chunkSize    int
	logger       *slog.Logger
}

// NewHRSyncService создаёт сервис синхронизации.
// chunkSize ограничивает параллелизм upsert'ов; значения < 1 приводятся к 1.
func NewHRSyncService(
	fetcher EmployeeFetcher,
	users repository.UserRepository,
	activityRepo repository.ActivityLogRepository,
	chunkSize int,
	logger *slog.Logger,
) *HRSyncService {
	if chunkSize < 1 {
		chunkSize = 1
	}
	return &HRSyncService{
		fetcher:      fetcher,
		users:        users,
		activityRepo: activityRepo,
		chunkSize:    chunkSize,
		logger:       logger.With(slog.String("component", "hr_sync")),
	}
}

// SyncNow выполняет немедленную синхронизацию с HR API.
func (s *HRSyncService) SyncNow(ctx context.Context, actor *model.User) (*model.HRSyncResult, error) {
	startedAt := time.Now()

	employees, err := s.fetcher.FetchEmployees(ctx)
	if err != nil {
		switch {
		case errors.Is(err, hrclient.ErrMalformed):
			return nil, fmt.Errorf("%w: %w", ErrHRMalformed, err)
		case errors.Is(err, hrclient.ErrUnavailable):
			return nil, fmt.Errorf("%w: %w", ErrHRUnavailable, err)
		}
		return nil, fmt.Errorf("получение ростера HR: %w", err)
	}

	s.logger.Info("Ростер HR получен, начинаем сверку",
		slog.Int("employees", len(employees)),
		slog.Int("chunk_size", s.chunkSize),
	)

	result := &model.HRSyncResult{Total: len(employees)}

	for start := 0; start < len(employees); start += s.chunkSize {
		end := min(start+s.chunkSize, len(employees))
		if err := s.syncChunk(ctx, employees[start:end], result); err != nil {
			return nil, err
		}
	}

	result.SyncedAt = time.Now().UTC()
	hrSyncDuration.Observe(time.Since(startedAt).Seconds())

	s.logger.Info("Синхронизация с HR завершена",
		slog.Int("total", result.Total),
		slog.Int("added", result.Added),
		slog.Int("updated", result.Updated),
		slog.Int("skipped", result.Skipped),
	)

	// Журнал — best-effort, итог синхронизации уже применён.
	var actorID *int
	if actor != nil {
		actorID = &actor.ID
	}
	desc := fmt.Sprintf("Синхронизация с HR: %d добавлено, %d обновлено, %d пропущено из %d",
		result.Added, result.Updated, result.Skipped, result.Total)
	if err := s.activityRepo.Insert(ctx, model.ActivitySyncUsers, desc, actorID); err != nil {
		s.logger.Warn("Ошибка записи в журнал активности", slog.String("error", err.Error()))
	}

	return result, nil
}

// syncChunk обрабатывает один чанк ростера параллельно.
// Каждая горутина пишет итог в свой слот среза — общих счётчиков нет,
// агрегация выполняется после Wait.
func (s *HRSyncService) syncChunk(ctx context.Context, chunk []model.ExternalEmployee, result *model.HRSyncResult) error {
	outcomes := make([]upsertOutcome, len(chunk))

	g, gctx := errgroup.WithContext(ctx)
	for i, emp := range chunk {
		g.Go(func() error {
			name := emp.DisplayName()
			number := emp.EmployeeNumber()
			if name == "" || number == "" {
				outcomes[i] = outcomeSkipped
				s.logger.Debug("Запись ростера пропущена",
					slog.String("name", name),
					slog.String("employee_id", number),
				)
				return nil
			}

			inserted, err := s.users.UpsertByEmployeeID(gctx, name, number)
			if err != nil {
				return fmt.Errorf("upsert сотрудника %q: %w", number, err)
			}
			if inserted {
				outcomes[i] = outcomeAdded
			} else {
				outcomes[i] = outcomeUpdated
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, o := range outcomes {
		switch o {
		case outcomeAdded:
			result.Added++
		case outcomeUpdated:
			result.Updated++
		case outcomeSkipped:
			result.Skipped++
		}
	}
	return nil
}
