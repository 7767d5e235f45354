package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/hrclient"
	"github.com/smabadi/fitcheck/backend/internal/repository"
)

// fakeFetcher отдаёт заготовленный ростер или ошибку.
type fakeFetcher struct {
	employees []model.ExternalEmployee
	err       error
}

func (f *fakeFetcher) FetchEmployees(_ context.Context) ([]model.ExternalEmployee, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.employees, nil
}

// fakeSyncUserRepo — in-memory реализация upsert'а по табельному номеру.
// Остальные методы UserRepository сервису синхронизации не нужны.
type fakeSyncUserRepo struct {
	repository.UserRepository

	mu      sync.Mutex
	names   map[string]string // employee_id -> name
	calls   int
	failFor string // табельный номер, на котором upsert падает
}

func newFakeSyncUserRepo() *fakeSyncUserRepo {
	return &fakeSyncUserRepo{names: make(map[string]string)}
}

func (f *fakeSyncUserRepo) UpsertByEmployeeID(_ context.Context, name, employeeID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if employeeID == f.failFor {
		return false, errors.New("БД недоступна")
	}
	_, exists := f.names[employeeID]
	f.names[employeeID] = name
	return !exists, nil
}

func roster(n int) []model.ExternalEmployee {
	out := make([]model.ExternalEmployee, n)
	for i := range out {
		out[i] = model.ExternalEmployee{
			EmpName:   fmt.Sprintf("Сотрудник %d", i+1),
			EmpNumber: fmt.Sprintf("EMP-%03d", i+1),
		}
	}
	return out
}

func TestHRSyncClassification(t *testing.T) {
	employees := roster(10)
	users := newFakeSyncUserRepo()
	// 4 сотрудника уже есть локально
	for i := 0; i < 4; i++ {
		users.names[employees[i].EmpNumber] = "Старое имя"
	}

	svc := NewHRSyncService(&fakeFetcher{employees: employees}, users, &fakeActivityRepo{}, 3, testLogger())

	result, err := svc.SyncNow(context.Background(), nil)
	if err != nil {
		t.Fatalf("SyncNow() ошибка: %v", err)
	}
	if result.Total != 10 || result.Added != 6 || result.Updated != 4 || result.Skipped != 0 {
		t.Errorf("Итог = {total:%d added:%d updated:%d skipped:%d}, хотели {10 6 4 0}",
			result.Total, result.Added, result.Updated, result.Skipped)
	}
	if result.SyncedAt.IsZero() {
		t.Error("SyncedAt не установлен")
	}
	// Имена обновлены из ростера
	if users.names["EMP-001"] != "Сотрудник 1" {
		t.Errorf("Имя EMP-001 = %q, хотели %q", users.names["EMP-001"], "Сотрудник 1")
	}
}

// Повторный прогон того же ростера идемпотентен: всё классифицируется
// как обновление, новых пользователей не появляется.
func TestHRSyncIdempotent(t *testing.T) {
	employees := roster(7)
	users := newFakeSyncUserRepo()
	svc := NewHRSyncService(&fakeFetcher{employees: employees}, users, &fakeActivityRepo{}, 20, testLogger())

	first, err := svc.SyncNow(context.Background(), nil)
	if err != nil {
		t.Fatalf("Первый SyncNow() ошибка: %v", err)
	}
	if first.Added != 7 || first.Updated != 0 {
		t.Errorf("Первый прогон: added=%d updated=%d, хотели 7/0", first.Added, first.Updated)
	}

	second, err := svc.SyncNow(context.Background(), nil)
	if err != nil {
		t.Fatalf("Повторный SyncNow() ошибка: %v", err)
	}
	if second.Added != 0 || second.Updated != 7 {
		t.Errorf("Повторный прогон: added=%d updated=%d, хотели 0/7", second.Added, second.Updated)
	}
	if len(users.names) != 7 {
		t.Errorf("Пользователей в БД %d, хотели 7", len(users.names))
	}
}

func TestHRSyncSkipsIncompleteRecords(t *testing.T) {
	employees := []model.ExternalEmployee{
		{EmpName: "Полный", EmpNumber: "EMP-1"},
		{EmpName: "Без номера"},
		{EmpNumber: "EMP-3"},
		{},
		{Name: "Вариант полей", EmployeeID: "EMP-5"},
	}
	users := newFakeSyncUserRepo()
	svc := NewHRSyncService(&fakeFetcher{employees: employees}, users, &fakeActivityRepo{}, 2, testLogger())

	result, err := svc.SyncNow(context.Background(), nil)
	if err != nil {
		t.Fatalf("SyncNow() ошибка: %v", err)
	}
	if result.Total != 5 || result.Added != 2 || result.Skipped != 3 {
		t.Errorf("Итог = {total:%d added:%d skipped:%d}, хотели {5 2 3}",
			result.Total, result.Added, result.Skipped)
	}
	// Пропущенные записи не трогают БД
	if users.calls != 2 {
		t.Errorf("Upsert вызван %d раз, хотели 2", users.calls)
	}
}

func TestHRSyncChunking(t *testing.T) {
	employees := roster(25)
	users := newFakeSyncUserRepo()
	svc := NewHRSyncService(&fakeFetcher{employees: employees}, users, &fakeActivityRepo{}, 10, testLogger())

	result, err := svc.SyncNow(context.Background(), nil)
	if err != nil {
		t.Fatalf("SyncNow() ошибка: %v", err)
	}
	if result.Added != 25 {
		t.Errorf("Added = %d, хотели 25", result.Added)
	}
	if users.calls != 25 {
		t.Errorf("Upsert вызван %d раз, хотели 25", users.calls)
	}
}

func TestHRSyncErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		fetchErr error
		wantErr  error
	}{
		{"некорректный ответ", fmt.Errorf("оболочка: %w", hrclient.ErrMalformed), ErrHRMalformed},
		{"недоступность", fmt.Errorf("оболочка: %w", hrclient.ErrUnavailable), ErrHRUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewHRSyncService(&fakeFetcher{err: tt.fetchErr}, newFakeSyncUserRepo(), &fakeActivityRepo{}, 20, testLogger())
			_, err := svc.SyncNow(context.Background(), nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SyncNow() ошибка = %v, хотели %v", err, tt.wantErr)
			}
		})
	}
}

func TestHRSyncFailsFastOnUpsertError(t *testing.T) {
	employees := roster(10)
	users := newFakeSyncUserRepo()
	users.failFor = "EMP-004"
	activity := &fakeActivityRepo{}
	svc := NewHRSyncService(&fakeFetcher{employees: employees}, users, activity, 3, testLogger())

	_, err := svc.SyncNow(context.Background(), nil)
	if err == nil {
		t.Fatal("SyncNow() не вернул ошибку при сбое upsert")
	}
	// Итоговая запись журнала не пишется для сорвавшегося прогона
	if activity.count() != 0 {
		t.Errorf("Журнал: %d записей после сбоя, хотели 0", activity.count())
	}
}

func TestHRSyncWritesActivitySummary(t *testing.T) {
	employees := roster(3)
	activity := &fakeActivityRepo{}
	svc := NewHRSyncService(&fakeFetcher{employees: employees}, newFakeSyncUserRepo(), activity, 20, testLogger())

	actor := &model.User{ID: 1, Role: model.RoleAdmin}
	if _, err := svc.SyncNow(context.Background(), actor); err != nil {
		t.Fatalf("SyncNow() ошибка: %v", err)
	}

	if activity.count() != 1 {
		t.Fatalf("Журнал: %d записей, хотели 1", activity.count())
	}
	e := activity.entries[0]
	if e.ActivityType != model.ActivitySyncUsers {
		t.Errorf("ActivityType = %q, хотели %q", e.ActivityType, model.ActivitySyncUsers)
	}
	if e.UserID == nil || *e.UserID != 1 {
		t.Errorf("UserID = %v, хотели 1", e.UserID)
	}
}

func TestHRSyncEmptyRoster(t *testing.T) {
	svc := NewHRSyncService(&fakeFetcher{}, newFakeSyncUserRepo(), &fakeActivityRepo{}, 20, testLogger())

	result, err := svc.SyncNow(context.Background(), nil)
	if err != nil {
		t.Fatalf("SyncNow() ошибка: %v", err)
	}
	if result.Total != 0 || result.Added != 0 {
		t.Errorf("Пустой ростер: total=%d added=%d, хотели 0/0", result.Total, result.Added)
	}
}
