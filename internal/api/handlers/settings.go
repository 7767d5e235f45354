// settings.go — обработчики настроек приложения.
// Админ-панель работает с backend-наименованием ключей, Android-клиент —
// с android-наименованием (трансляция в internal/translate).
// SSE-поток отдаёт connected-конверт, снапшот и инкрементальные обновления.
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	apierrors "github.com/smabadi/fitcheck/backend/internal/api/errors"
	"github.com/smabadi/fitcheck/backend/internal/broadcast"
	"github.com/smabadi/fitcheck/backend/internal/service"
	"github.com/smabadi/fitcheck/backend/internal/translate"
)

// GetSettings — GET /api/admin/settings.
// Возвращает снапшот настроек в backend-наименовании.
func (h *APIHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.GetAll(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка чтения настроек")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettings — POST /api/admin/settings.
// Принимает частичный набор ключей, валидирует, сохраняет одной
// транзакцией и рассылает обновление подписчикам.
func (h *APIHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	snapshot, err := h.settings.Update(r.Context(), raw, actorFromContext(r))
	if err != nil {
		h.writeServiceError(w, err, "Ошибка обновления настроек")
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// GetAndroidSettings — GET /api/android/settings.
// Возвращает снапшот настроек в android-наименовании.
func (h *APIHandler) GetAndroidSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.GetAll(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка чтения настроек")
		return
	}
	writeJSON(w, http.StatusOK, translate.ToExternal(settings))
}

// UpdateAndroidSettings — POST /api/android/settings.
// Принимает ключи в android-наименовании (трансляция внутри сервиса).
func (h *APIHandler) UpdateAndroidSettings(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	snapshot, err := h.settings.Update(r.Context(), raw, nil)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка обновления настроек")
		return
	}

	writeJSON(w, http.StatusOK, translate.ToExternal(snapshot))
}

// --- SSE ---

// sseSubscriber — подписчик hub'а, пишущий события в SSE-поток.
// Мьютекс сериализует записи: Publish может прийти из другой горутины.
type sseSubscriber struct {
	mu sync.Mutex
	w  http.ResponseWriter
	rc *http.ResponseController
}

// Send записывает одно SSE-событие и сбрасывает буфер.
func (s *sseSubscriber) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	return s.rc.Flush()
}

// StreamSettings — GET /api/admin/settings/stream.
// SSE-поток настроек в backend-наименовании.
func (h *APIHandler) StreamSettings(w http.ResponseWriter, r *http.Request) {
	h.streamSettings(w, r, broadcast.ConventionBackend)
}

// StreamAndroidSettings — GET /api/android/settings/stream.
// SSE-поток настроек в android-наименовании.
func (h *APIHandler) StreamAndroidSettings(w http.ResponseWriter, r *http.Request) {
	h.streamSettings(w, r, broadcast.ConventionAndroid)
}

// streamSettings — общая реализация SSE-потока для обеих конвенций.
func (h *APIHandler) streamSettings(w http.ResponseWriter, r *http.Request, conv broadcast.Convention) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	sub := &sseSubscriber{w: w, rc: http.NewResponseController(w)}

	if err := sub.Send(payloadFor(service.ConnectedMessage(), conv)); err != nil {
		return
	}

	// Сначала подписка, потом чтение снапшота: обновление, опубликованное
	// во время чтения, либо уже попало в снапшот, либо придёт через hub.
	// Мьютекс подписчика сериализует конкурентные записи.
	id := h.hub.Subscribe(sub, conv)
	defer h.hub.Unsubscribe(id)

	snapshot, err := h.settings.SnapshotMessage(r.Context())
	if err != nil {
		h.logger.Error("Ошибка чтения настроек для SSE-потока", slog.String("error", err.Error()))
		return
	}
	if err := sub.Send(payloadFor(snapshot, conv)); err != nil {
		return
	}

	<-r.Context().Done()
}

// payloadFor выбирает сериализованный payload сообщения для конвенции.
func payloadFor(msg broadcast.Message, conv broadcast.Convention) []byte {
	if conv == broadcast.ConventionAndroid {
		return msg.Android
	}
	return msg.Backend
}
