// history.go — обработчики истории тестирования для админ-панели.
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/smabadi/fitcheck/backend/internal/api/errors"
	"github.com/smabadi/fitcheck/backend/internal/domain/model"
	"github.com/smabadi/fitcheck/backend/internal/repository"
)

// historyItem — строка истории с Fit/Unfit статусом.
type historyItem struct {
	ResultID        int       `json:"result_id"`
	UserID          int       `json:"user_id"`
	UserName        string    `json:"user_name"`
	EmployeeID      string    `json:"employee_id"`
	AssessmentScore int       `json:"assessment_score"`
	Minigame1Score  int       `json:"minigame1_score"`
	Minigame2Score  int       `json:"minigame2_score"`
	Minigame3Score  int       `json:"minigame3_score"`
	Minigame4Score  int       `json:"minigame4_score"`
	Minigame5Score  int       `json:"minigame5_score"`
	TotalScore      int       `json:"total_score"`
	Status          string    `json:"status"`
	TestTimestamp   time.Time `json:"test_timestamp"`
}

// historyResponse — страница истории.
type historyResponse struct {
	Items   []historyItem `json:"items"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	HasMore bool          `json:"has_more"`
}

func mapHistoryItem(r *model.TestResult) historyItem {
	return historyItem{
		ResultID:        r.ID,
		UserID:          r.UserID,
		UserName:        r.UserName,
		EmployeeID:      r.EmployeeID,
		AssessmentScore: r.AssessmentScore,
		Minigame1Score:  r.MinigameScores[0],
		Minigame2Score:  r.MinigameScores[1],
		Minigame3Score:  r.MinigameScores[2],
		Minigame4Score:  r.MinigameScores[3],
		Minigame5Score:  r.MinigameScores[4],
		TotalScore:      r.TotalScore,
		Status:          r.Status,
		TestTimestamp:   r.Timestamp,
	}
}

// TestHistory — GET /api/admin/test-history.
// Пагинация, поиск по имени/табельному номеру, фильтр по диапазону дат.
// Статус Fit/Unfit вычисляется относительно текущего проходного балла.
func (h *APIHandler) TestHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)

	filter := repository.HistoryFilter{
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	}

	if v := r.URL.Query().Get("from"); v != "" {
		from, err := time.Parse("2006-01-02", v)
		if err != nil {
			apierrors.ValidationError(w, "Некорректная дата from: ожидается YYYY-MM-DD")
			return
		}
		filter.From = from
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err := time.Parse("2006-01-02", v)
		if err != nil {
			apierrors.ValidationError(w, "Некорректная дата to: ожидается YYYY-MM-DD")
			return
		}
		// Граница включительно: конец суток
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}

	results, total, err := h.results.History(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения истории тестов")
		return
	}

	items := make([]historyItem, len(results))
	for i := range results {
		items[i] = mapHistoryItem(&results[i])
	}

	writeJSON(w, http.StatusOK, historyResponse{
		Items:   items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+limit < total,
	})
}

// userAnswerItem — ответ пользователя в выдаче истории.
type userAnswerItem struct {
	AnswerID     int       `json:"answer_id"`
	ResultID     int       `json:"result_id"`
	QuestionID   int       `json:"question_id"`
	QuestionText string    `json:"question_text"`
	Answer       string    `json:"answer"`
	CreatedAt    time.Time `json:"created_at"`
}

// ResultAnswers — GET /api/admin/test-history/{id}/answers.
// Ответы пользователя по конкретному результату теста.
func (h *APIHandler) ResultAnswers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	answers, err := h.results.Answers(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка получения ответов")
		return
	}

	items := make([]userAnswerItem, len(answers))
	for i, a := range answers {
		items[i] = userAnswerItem{
			AnswerID:     a.ID,
			ResultID:     a.ResultID,
			QuestionID:   a.QuestionID,
			QuestionText: a.QuestionText,
			Answer:       a.Answer,
			CreatedAt:    a.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, items)
}
