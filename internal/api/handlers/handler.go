// handler.go — основной обработчик API FitCheck Backend.
// Объединяет все доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	apierrors "github.com/smabadi/fitcheck/backend/internal/api/errors"
	"github.com/smabadi/fitcheck/backend/internal/api/middleware"
	"github.com/smabadi/fitcheck/backend/internal/broadcast"
	"github.com/smabadi/fitcheck/backend/internal/config"
	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/service"
)

// APIHandler — основной обработчик API FitCheck Backend.
// Делегирует запросы в сервисный слой.
type APIHandler struct {
	health    *HealthHandler
	auth      *service.AuthService
	users     *service.UsersService
	settings  *service.SettingsService
	questions *service.QuestionsService
	results   *service.ResultsService
	dashboard *service.DashboardService
	hrSync    *service.HRSyncService
	hub       *broadcast.Hub
	cfg       *config.Config
	logger    *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	auth *service.AuthService,
	users *service.UsersService,
	settings *service.SettingsService,
	questions *service.QuestionsService,
	results *service.ResultsService,
	dashboard *service.DashboardService,
	hrSync *service.HRSyncService,
	hub *broadcast.Hub,
	cfg *config.Config,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:    health,
		auth:      auth,
		users:     users,
		settings:  settings,
		questions: questions,
		results:   results,
		dashboard: dashboard,
		hrSync:    hrSync,
		hub:       hub,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "api_handler")),
	}
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError маппит ошибки сервисного слоя в HTTP-ответы.
// Неклассифицированные ошибки логируются и возвращаются как 500.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, err error, internalMsg string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrConflict):
		apierrors.Conflict(w, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		apierrors.Unauthorized(w, err.Error())
	case errors.Is(err, service.ErrForbidden):
		apierrors.Forbidden(w, err.Error())
	case errors.Is(err, service.ErrHRMalformed):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrHRUnavailable):
		apierrors.HRUnavailable(w, err.Error())
	default:
		h.logger.Error(internalMsg, slog.Any("error", err))
		apierrors.InternalError(w, internalMsg)
	}
}

// actorFromContext восстанавливает пользователя-инициатора из JWT claims.
// Возвращает nil для неаутентифицированных запросов.
func actorFromContext(r *http.Request) *model.User {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return nil
	}
	return &model.User{
		ID:         claims.UserID,
		EmployeeID: claims.EmployeeID,
		Role:       claims.Role,
	}
}

// paginationParams извлекает limit и offset из query-параметров.
func paginationParams(r *http.Request) (limit, offset int) {
	limit = 100
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			offset = n
		}
	}

	if limit < 1 {
		limit = 1
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// pathID извлекает числовой параметр пути. Возвращает ошибку 400 при мусоре.
func pathID(w http.ResponseWriter, raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		apierrors.ValidationError(w, "Некорректный идентификатор: "+raw)
		return 0, false
	}
	return id, true
}

// userResponse — представление пользователя в API (без хэша пароля).
type userResponse struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
}

func mapUser(u *model.User) userResponse {
	return userResponse{
		ID:         u.ID,
		Name:       u.Name,
		EmployeeID: u.EmployeeID,
		Role:       u.Role,
	}
}
