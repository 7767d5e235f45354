// settings_ws.go — WebSocket-поток настроек для Android-клиента.
// Тот же конверт, что и в SSE: connected, затем снапшот, затем обновления.
package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smabadi/fitcheck/backend/internal/broadcast"
	"github.com/smabadi/fitcheck/backend/internal/service"
)

const (
	// Таймаут записи одного сообщения.
	wsWriteWait = 10 * time.Second

	// Время ожидания pong от клиента.
	wsPongWait = 60 * time.Second

	// Период отправки ping. Должен быть меньше wsPongWait.
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin не проверяется: endpoint защищён API-ключом, не cookie.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// wsSubscriber — подписчик hub'а, пишущий конверты в WebSocket-соединение.
// Мьютекс сериализует записи: Publish и ping-цикл пишут из разных горутин.
type wsSubscriber struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Send записывает один конверт как текстовое сообщение.
func (s *wsSubscriber) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// ping отправляет контрольный ping.
func (s *wsSubscriber) ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

// StreamAndroidSettingsWS — GET /api/android/settings/ws.
// Апгрейд до WebSocket и подписка на обновления настроек
// в android-наименовании.
func (h *APIHandler) StreamAndroidSettingsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет HTTP-ответ об ошибке
		h.logger.Warn("Ошибка WebSocket upgrade", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	sub := &wsSubscriber{conn: conn}

	if err := sub.Send(payloadFor(service.ConnectedMessage(), broadcast.ConventionAndroid)); err != nil {
		return
	}

	// Сначала подписка, потом чтение снапшота: обновление, опубликованное
	// во время чтения, либо уже попало в снапшот, либо придёт через hub.
	id := h.hub.Subscribe(sub, broadcast.ConventionAndroid)
	defer h.hub.Unsubscribe(id)

	snapshot, err := h.settings.SnapshotMessage(r.Context())
	if err != nil {
		h.logger.Error("Ошибка чтения настроек для WebSocket-потока", slog.String("error", err.Error()))
		return
	}
	if err := sub.Send(payloadFor(snapshot, broadcast.ConventionAndroid)); err != nil {
		return
	}

	// Читающая горутина: обнаруживает закрытие соединения и держит pong.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := sub.ping(); err != nil {
				return
			}
		}
	}
}
