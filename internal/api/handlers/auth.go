// auth.go — обработчики /api/auth endpoints.
// Вход администратора по табельному номеру и паролю, валидация токена.
package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/smabadi/fitcheck/backend/internal/api/errors"
	"github.com/smabadi/fitcheck/backend/internal/api/middleware"
)

// loginRequest — тело запроса POST /api/auth/login.
type loginRequest struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

// loginResponse — ответ успешного входа.
type loginResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// Login — POST /api/auth/login.
// Аутентификация администратора, выдача JWT.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	token, user, err := h.auth.LoginAdmin(r.Context(), req.EmployeeID, req.Password)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка входа")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  mapUser(user),
	})
}

// validateResponse — ответ GET /api/auth/validate.
type validateResponse struct {
	Valid bool         `json:"valid"`
	User  userResponse `json:"user"`
}

// Validate — GET /api/auth/validate.
// Подтверждает валидность токена и возвращает данные субъекта.
// Должен вызываться ПОСЛЕ JWT middleware.
func (h *APIHandler) Validate(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		apierrors.Unauthorized(w, "Отсутствуют claims в контексте")
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{
		Valid: true,
		User: userResponse{
			ID:         claims.UserID,
			EmployeeID: claims.EmployeeID,
			Role:       claims.Role,
		},
	})
}

// androidLoginRequest — тело запроса POST /api/android/login.
type androidLoginRequest struct {
	EmployeeID string `json:"employee_id"`
}

// AndroidLogin — POST /api/android/login.
// Вход сотрудника по табельному номеру (без пароля, под защитой API-ключа).
func (h *APIHandler) AndroidLogin(w http.ResponseWriter, r *http.Request) {
	var req androidLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}
	if req.EmployeeID == "" {
		apierrors.ValidationError(w, "Не указан табельный номер")
		return
	}

	user, err := h.auth.LoginEmployee(r.Context(), req.EmployeeID)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка входа сотрудника")
		return
	}

	writeJSON(w, http.StatusOK, mapUser(user))
}
