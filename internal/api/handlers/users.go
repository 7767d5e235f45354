// users.go — обработчики /api/admin/users endpoints.
// Управление пользователями: список, создание, получение, обновление, удаление.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/smabadi/fitcheck/backend/internal/api/errors"
)

// userRequest — тело запроса создания/обновления пользователя.
type userRequest struct {
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id"`
	Role       string `json:"role"`
	Password   string `json:"password"`
}

// userListResponse — страница списка пользователей.
type userListResponse struct {
	Items   []userResponse `json:"items"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
	HasMore bool           `json:"has_more"`
}

// ListUsers — GET /api/admin/users.
// Список пользователей с пагинацией и поиском по имени/табельному номеру.
func (h *APIHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	search := r.URL.Query().Get("search")

	users, total, err := h.users.List(r.Context(), search, limit, offset)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения списка пользователей")
		return
	}

	items := make([]userResponse, len(users))
	for i := range users {
		items[i] = mapUser(&users[i])
	}

	writeJSON(w, http.StatusOK, userListResponse{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	})
}

// CreateUser — POST /api/admin/users.
func (h *APIHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.EmployeeID, req.Role, req.Password, actorFromContext(r))
	if err != nil {
		h.writeServiceError(w, err, "Ошибка создания пользователя")
		return
	}

	writeJSON(w, http.StatusCreated, mapUser(user))
}

// GetUser — GET /api/admin/users/{id}.
func (h *APIHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения пользователя")
		return
	}

	writeJSON(w, http.StatusOK, mapUser(user))
}

// UpdateUser — PUT /api/admin/users/{id}.
// Обновляет имя и роль; пароль — только если передан непустым.
func (h *APIHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	user, err := h.users.Update(r.Context(), id, req.Name, req.Role, req.Password, actorFromContext(r))
	if err != nil {
		h.writeServiceError(w, err, "Ошибка обновления пользователя")
		return
	}

	writeJSON(w, http.StatusOK, mapUser(user))
}

// DeleteUser — DELETE /api/admin/users/{id}.
// Каскадно удаляет результаты тестов и записи журнала пользователя.
func (h *APIHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), id, actorFromContext(r)); err != nil {
		h.writeServiceError(w, err, "Ошибка удаления пользователя")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
