// results.go — обработчики сохранения результатов тестирования (Android).
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	apierrors "github.com/smabadi/fitcheck/backend/internal/api/errors"
	"github.com/smabadi/fitcheck/backend/internal/domain/model"
)

// resultRequest — тело запроса POST /api/android/test-results.
type resultRequest struct {
	UserID          int `json:"user_id"`
	AssessmentScore int `json:"assessment_score"`
	Minigame1Score  int `json:"minigame1_score"`
	Minigame2Score  int `json:"minigame2_score"`
	Minigame3Score  int `json:"minigame3_score"`
	Minigame4Score  int `json:"minigame4_score"`
	Minigame5Score  int `json:"minigame5_score"`
	TotalScore      int `json:"total_score"`
}

// resultResponse — сохранённый результат.
type resultResponse struct {
	ResultID        int       `json:"result_id"`
	UserID          int       `json:"user_id"`
	AssessmentScore int       `json:"assessment_score"`
	Minigame1Score  int       `json:"minigame1_score"`
	Minigame2Score  int       `json:"minigame2_score"`
	Minigame3Score  int       `json:"minigame3_score"`
	Minigame4Score  int       `json:"minigame4_score"`
	Minigame5Score  int       `json:"minigame5_score"`
	TotalScore      int       `json:"total_score"`
	TestTimestamp   time.Time `json:"test_timestamp"`
}

// SubmitResult — POST /api/android/test-results.
// Сохраняет результат теста. Повторная сдача в тот же день → 409.
func (h *APIHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	result := &model.TestResult{
		UserID:          req.UserID,
		AssessmentScore: req.AssessmentScore,
		MinigameScores: [5]int{
			req.Minigame1Score, req.Minigame2Score, req.Minigame3Score,
			req.Minigame4Score, req.Minigame5Score,
		},
		TotalScore: req.TotalScore,
	}

	saved, err := h.results.Submit(r.Context(), result)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка сохранения результата")
		return
	}

	writeJSON(w, http.StatusCreated, resultResponse{
		ResultID:        saved.ID,
		UserID:          saved.UserID,
		AssessmentScore: saved.AssessmentScore,
		Minigame1Score:  saved.MinigameScores[0],
		Minigame2Score:  saved.MinigameScores[1],
		Minigame3Score:  saved.MinigameScores[2],
		Minigame4Score:  saved.MinigameScores[3],
		Minigame5Score:  saved.MinigameScores[4],
		TotalScore:      saved.TotalScore,
		TestTimestamp:   saved.Timestamp,
	})
}

// userAnswersRequest — тело запроса POST /api/android/user-answers.
type userAnswersRequest struct {
	ResultID int `json:"result_id"`
	Answers  []struct {
		QuestionID   int    `json:"question_id"`
		QuestionText string `json:"question_text"`
		Answer       string `json:"answer"`
	} `json:"answers"`
}

// SubmitUserAnswers — POST /api/android/user-answers.
// Сохраняет ответы пользователя одной транзакцией. Текст вопроса
// денормализуется на момент записи.
func (h *APIHandler) SubmitUserAnswers(w http.ResponseWriter, r *http.Request) {
	var req userAnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	answers := make([]model.UserAnswer, len(req.Answers))
	for i, a := range req.Answers {
		answers[i] = model.UserAnswer{
			QuestionID:   a.QuestionID,
			QuestionText: a.QuestionText,
			Answer:       a.Answer,
		}
	}

	saved, err := h.results.SubmitAnswers(r.Context(), req.ResultID, answers)
	if err != nil {
		h.writeServiceError(w, err, "Ошибка сохранения ответов")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{"saved": saved})
}
