package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smabadi/fitcheck/backend/internal/broadcast"
	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/repository"
	"github.com/smabadi/fitcheck/backend/internal/service"
)

// gatedSettingsRepo — in-memory SettingsRepository, первый GetAll которого
// блокируется до закрытия release. Позволяет детерминированно выполнить
// Update в момент, когда обработчик потока читает снапшот.
type gatedSettingsRepo struct {
	mu      sync.Mutex
	data    map[string]string
	calls   int
	started chan struct{}
	release chan struct{}
}

func newGatedSettingsRepo() *gatedSettingsRepo {
	return &gatedSettingsRepo{
		data:    make(map[string]string),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (f *gatedSettingsRepo) GetAll(_ context.Context) ([]repository.AppSetting, error) {
	f.mu.Lock()
	f.calls++
	first := f.calls == 1
	f.mu.Unlock()

	if first {
		close(f.started)
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.AppSetting, 0, len(f.data))
	for k, v := range f.data {
		out = append(out, repository.AppSetting{Key: k, Value: v})
	}
	return out, nil
}

func (f *gatedSettingsRepo) Upsert(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *gatedSettingsRepo) UpsertAll(_ context.Context, settings map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range settings {
		f.data[k] = v
	}
	return nil
}

// fakeActivityRepo — заглушка журнала активности.
type fakeActivityRepo struct{}

func (f *fakeActivityRepo) Insert(_ context.Context, _, _ string, _ *int) error {
	return nil
}

func (f *fakeActivityRepo) ListRecent(_ context.Context, _ int) ([]model.ActivityEntry, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStreamTestHandler() (*APIHandler, *gatedSettingsRepo, *service.SettingsService) {
	repo := newGatedSettingsRepo()
	hub := broadcast.NewHub(testLogger())
	svc := service.NewSettingsService(repo, &fakeActivityRepo{}, hub, testLogger())
	h := &APIHandler{settings: svc, hub: hub, logger: testLogger()}
	return h, repo, svc
}

func waitStarted(t *testing.T, started <-chan struct{}) {
	t.Helper()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("Обработчик не начал читать снапшот настроек")
	}
}

// Обновление, выполненное в момент чтения снапшота новым SSE-клиентом,
// не должно теряться: оно приходит либо в снапшоте, либо отдельным конвертом.
func TestStreamSettingsDeliversUpdateDuringSnapshotRead(t *testing.T) {
	h, repo, svc := newStreamTestHandler()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/admin/settings/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.StreamSettings(rec, req)
	}()

	waitStarted(t, repo.started)

	if _, err := svc.Update(context.Background(), map[string]any{
		"minimum_passing_score": float64(85),
	}, nil); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}

	close(repo.release)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, `"type":"connected"`) {
		t.Errorf("Клиент не получил connected-конверт:\n%s", body)
	}
	if !strings.Contains(body, `"minimum_passing_score":85`) {
		t.Errorf("Клиент не получил minimum_passing_score=85 — обновление потеряно:\n%s", body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, хотели text/event-stream", ct)
	}
}

// То же свойство для WebSocket-потока Android-клиента.
func TestStreamSettingsWSDeliversUpdateDuringSnapshotRead(t *testing.T) {
	h, repo, svc := newStreamTestHandler()

	srv := httptest.NewServer(http.HandlerFunc(h.StreamAndroidSettingsWS))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Ошибка подключения WebSocket: %v", err)
	}
	defer conn.Close()

	waitStarted(t, repo.started)

	if _, err := svc.Update(context.Background(), map[string]any{
		"minimum_passing_score": float64(85),
	}, nil); err != nil {
		t.Fatalf("Update() ошибка: %v", err)
	}

	close(repo.release)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var got []string
	for i := 0; i < 3; i++ {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Ошибка чтения сообщения: %v (получено: %v)", err, got)
		}
		got = append(got, string(msg))
		if strings.Contains(string(msg), `"minimum_passing_score":85`) {
			return
		}
	}
	t.Errorf("Клиент не получил minimum_passing_score=85 — обновление потеряно: %v", got)
}
