// questions.go — обработчики вопросов ассессмента.
// Админ-панель: CRUD (удаление мягкое). Android-клиент: чтение активных.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/smabadi/fitcheck/backend/internal/api/errors"
	"github.com/smabadi/fitcheck/backend/internal/domain/model"
)

// answerPayload — вариант ответа в запросе/ответе API.
type answerPayload struct {
	ID    int    `json:"answer_id,omitempty"`
	Text  string `json:"answer_text"`
	Score int    `json:"score"`
}

// questionRequest — тело запроса создания/обновления вопроса.
type questionRequest struct {
	Text    string          `json:"question_text"`
	Answers []answerPayload `json:"answers"`
}

// questionResponse — представление вопроса в API.
type questionResponse struct {
	ID       int             `json:"question_id"`
	Text     string          `json:"question_text"`
	IsActive bool            `json:"is_active"`
	Answers  []answerPayload `json:"answers"`
}

func mapQuestion(q *model.Question) questionResponse {
	answers := make([]answerPayload, len(q.Answers))
	for i, a := range q.Answers {
		answers[i] = answerPayload{ID: a.ID, Text: a.Text, Score: a.Score}
	}
	return questionResponse{
		ID:       q.ID,
		Text:     q.Text,
		IsActive: q.IsActive,
		Answers:  answers,
	}
}

func (r questionRequest) toAnswers() []model.Answer {
	answers := make([]model.Answer, len(r.Answers))
	for i, a := range r.Answers {
		answers[i] = model.Answer{Text: a.Text, Score: a.Score}
	}
	return answers
}

// ListQuestions — GET /api/admin/questions и GET /api/android/questions.
// Возвращает активные вопросы с вариантами ответов.
func (h *APIHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.questions.ListActive(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения вопросов")
		return
	}

	items := make([]questionResponse, len(questions))
	for i := range questions {
		items[i] = mapQuestion(&questions[i])
	}

	writeJSON(w, http.StatusOK, items)
}

// CreateQuestion — POST /api/admin/questions.
// Создаёт вопрос с вариантами ответов одной транзакцией.
func (h *APIHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	question, err := h.questions.Create(r.Context(), req.Text, req.toAnswers(), actorFromContext(r))
	if err != nil {
		h.writeServiceError(w, err, "Ошибка создания вопроса")
		return
	}

	writeJSON(w, http.StatusCreated, mapQuestion(question))
}

// UpdateQuestion — PUT /api/admin/questions/{id}.
// Заменяет текст и полный набор вариантов ответов.
func (h *APIHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	question, err := h.questions.Update(r.Context(), id, req.Text, req.toAnswers(), actorFromContext(r))
	if err != nil {
		h.writeServiceError(w, err, "Ошибка обновления вопроса")
		return
	}

	writeJSON(w, http.StatusOK, mapQuestion(question))
}

// DeleteQuestion — DELETE /api/admin/questions/{id}.
// Мягкое удаление: вопрос исчезает из выдачи, история ответов сохраняется.
func (h *APIHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.questions.Delete(r.Context(), id, actorFromContext(r)); err != nil {
		h.writeServiceError(w, err, "Ошибка удаления вопроса")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
