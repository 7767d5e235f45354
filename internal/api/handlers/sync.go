// sync.go — обработчик /api/admin/sync-users.
// Синхронизация локального реестра пользователей с внешним HR API.
package handlers

import (
	"net/http"
	"time"
)

// syncResponse — итог синхронизации с HR API.
type syncResponse struct {
	Total    int       `json:"total"`
	Added    int       `json:"added"`
	Updated  int       `json:"updated"`
	Skipped  int       `json:"skipped"`
	SyncedAt time.Time `json:"synced_at"`
}

// SyncUsers — POST /api/admin/sync-users.
// Запускает синхронизацию ростера сотрудников. Некорректный ответ HR API
// → 400, недоступность HR API → 502.
func (h *APIHandler) SyncUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.hrSync.SyncNow(r.Context(), actorFromContext(r))
	if err != nil {
		h.writeServiceError(w, err, "Ошибка синхронизации с HR API")
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		Total:    result.Total,
		Added:    result.Added,
		Updated:  result.Updated,
		Skipped:  result.Skipped,
		SyncedAt: result.SyncedAt,
	})
}
