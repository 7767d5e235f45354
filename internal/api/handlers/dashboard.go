// dashboard.go — обработчик сводки админ-панели.
package handlers

import (
	"net/http"
	"time"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
)

// activityItem — запись журнала активности в выдаче дашборда.
type activityItem struct {
	ID           int       `json:"id"`
	ActivityType string    `json:"activity_type"`
	Description  string    `json:"description"`
	ActorName    string    `json:"actor_name,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// dashboardResponse — агрегированная сводка.
type dashboardResponse struct {
	TotalUsers       int            `json:"total_users"`
	TotalTests       int            `json:"total_tests"`
	ActiveQuestions  int            `json:"active_questions"`
	SuccessRate      float64        `json:"success_rate"`
	RecentUsers      []userResponse `json:"recent_users"`
	RecentResults    []historyItem  `json:"recent_results"`
	RecentActivities []activityItem `json:"recent_activities"`
}

func mapActivity(e *model.ActivityEntry) activityItem {
	return activityItem{
		ID:           e.ID,
		ActivityType: e.ActivityType,
		Description:  e.Description,
		ActorName:    e.ActorName,
		Timestamp:    e.Timestamp,
	}
}

// Dashboard — GET /api/admin/dashboard.
// Счётчики, success rate и последние пользователи/результаты/события.
func (h *APIHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения сводки")
		return
	}

	resp := dashboardResponse{
		TotalUsers:       stats.TotalUsers,
		TotalTests:       stats.TotalTests,
		ActiveQuestions:  stats.ActiveQuestions,
		SuccessRate:      stats.SuccessRate,
		RecentUsers:      make([]userResponse, len(stats.RecentUsers)),
		RecentResults:    make([]historyItem, len(stats.RecentResults)),
		RecentActivities: make([]activityItem, len(stats.RecentActivities)),
	}
	for i := range stats.RecentUsers {
		resp.RecentUsers[i] = mapUser(&stats.RecentUsers[i])
	}
	for i := range stats.RecentResults {
		resp.RecentResults[i] = mapHistoryItem(&stats.RecentResults[i])
	}
	for i := range stats.RecentActivities {
		resp.RecentActivities[i] = mapActivity(&stats.RecentActivities[i])
	}

	writeJSON(w, http.StatusOK, resp)
}
