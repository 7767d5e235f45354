package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
)

// HistoryFilter — параметры выборки истории тестов.
type HistoryFilter struct {
	// Search — подстрока по имени или табельному номеру (ILIKE)
	Search string
	// From, To — границы по времени прохождения; нулевое время — без границы
	From time.Time
	To   time.Time
	// Limit, Offset — страница
	Limit  int
	Offset int
}

// ResultRepository — интерфейс для таблиц test_results и user_answers.
type ResultRepository interface {
	// Insert сохраняет результат теста, заполняет r.ID и r.Timestamp.
	Insert(ctx context.Context, r *model.TestResult) error
	// InsertAnswers сохраняет ответы пользователя одним вызовом.
	InsertAnswers(ctx context.Context, answers []model.UserAnswer) error
	// History возвращает страницу истории с именами пользователей,
	// статусом Fit/Unfit относительно passingScore и общее количество.
	History(ctx context.Context, f HistoryFilter, passingScore int) ([]model.TestResult, int, error)
	// AnswersByResult возвращает ответы пользователя по результату теста.
	AnswersByResult(ctx context.Context, resultID int) ([]model.UserAnswer, error)
	// HasResultToday сообщает, сдавал ли пользователь тест сегодня
	// (по серверной дате).
	HasResultToday(ctx context.Context, userID int) (bool, error)
	// Count возвращает общее количество результатов.
	Count(ctx context.Context) (int, error)
	// CountPassed возвращает количество результатов с total_score >= passingScore.
	CountPassed(ctx context.Context, passingScore int) (int, error)
	// Recent возвращает n последних результатов с именами пользователей.
	Recent(ctx context.Context, n int, passingScore int) ([]model.TestResult, error)
}

// resultRepo — реализация ResultRepository.
type resultRepo struct {
	db DBTX
	tx *TxRunner
}

// NewResultRepository создаёт репозиторий результатов тестов.
func NewResultRepository(db DBTX, tx *TxRunner) ResultRepository {
	return &resultRepo{db: db, tx: tx}
}

// Insert сохраняет результат теста.
func (r *resultRepo) Insert(ctx context.Context, res *model.TestResult) error {
	query := `
		INSERT INTO test_results
			(user_id, assessment_score,
			minigame1_score, minigame2_score, minigame3_score,
			minigame4_score, minigame5_score, total_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING result_id, test_timestamp`

	err := r.db.QueryRow(ctx, query,
		res.UserID, res.AssessmentScore,
		res.MinigameScores[0], res.MinigameScores[1], res.MinigameScores[2],
		res.MinigameScores[3], res.MinigameScores[4], res.TotalScore,
	).Scan(&res.ID, &res.Timestamp)
	if err != nil {
		return fmt.Errorf("ошибка сохранения результата теста: %w", err)
	}
	return nil
}

// InsertAnswers сохраняет ответы пользователя в одной транзакции.
func (r *resultRepo) InsertAnswers(ctx context.Context, answers []model.UserAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return r.tx.RunInTx(ctx, func(db DBTX) error {
		for i := range answers {
			a := &answers[i]
			err := db.QueryRow(ctx, `
				INSERT INTO user_answers (result_id, question_id, question_text, user_answer)
				VALUES ($1, $2, $3, $4)
				RETURNING answer_id, created_at`,
				a.ResultID, a.QuestionID, a.QuestionText, a.Answer,
			).Scan(&a.ID, &a.CreatedAt)
			if err != nil {
				return fmt.Errorf("ошибка сохранения ответа пользователя: %w", err)
			}
		}
		return nil
	})
}

// History возвращает страницу истории, новые первыми.
// Статус считается в SQL относительно проходного балла на момент чтения.
func (r *resultRepo) History(ctx context.Context, f HistoryFilter, passingScore int) ([]model.TestResult, int, error) {
	// В COUNT проходной балл не участвует, поэтому нумерация
	// плейсхолдеров фильтра в двух запросах различается.
	countWhere, filterArgs := historyWhere(f, 1)
	countQuery := `
		SELECT COUNT(*)
		FROM test_results tr
		JOIN users u ON tr.user_id = u.id` + countWhere

	var total int
	if err := r.db.QueryRow(ctx, countQuery, filterArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчёта истории: %w", err)
	}

	where, filterArgs := historyWhere(f, 2)
	args := append([]any{passingScore}, filterArgs...)
	tail := where + fmt.Sprintf(`
		ORDER BY tr.test_timestamp DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	return r.queryResults(ctx, tail, args, total)
}

// historyWhere собирает WHERE-часть фильтра истории.
// start — номер первого свободного плейсхолдера.
func historyWhere(f HistoryFilter, start int) (string, []any) {
	var conds []string
	var args []any

	next := func() int { return start + len(args) }
	if f.Search != "" {
		conds = append(conds, fmt.Sprintf("(u.name ILIKE $%[1]d OR u.employee_id ILIKE $%[1]d)", next()))
		args = append(args, "%"+strings.TrimSpace(f.Search)+"%")
	}
	if !f.From.IsZero() {
		conds = append(conds, fmt.Sprintf("tr.test_timestamp >= $%d", next()))
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		conds = append(conds, fmt.Sprintf("tr.test_timestamp <= $%d", next()))
		args = append(args, f.To)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// AnswersByResult возвращает ответы по результату, в порядке сохранения.
func (r *resultRepo) AnswersByResult(ctx context.Context, resultID int) ([]model.UserAnswer, error) {
	query := `
		SELECT answer_id, result_id, question_id, question_text, user_answer, created_at
		FROM user_answers
		WHERE result_id = $1
		ORDER BY answer_id`

	rows, err := r.db.Query(ctx, query, resultID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ответов результата %d: %w", resultID, err)
	}
	defer rows.Close()

	var answers []model.UserAnswer
	for rows.Next() {
		var a model.UserAnswer
		if err := rows.Scan(&a.ID, &a.ResultID, &a.QuestionID, &a.QuestionText, &a.Answer, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования ответа: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// HasResultToday проверяет наличие результата за сегодня.
func (r *resultRepo) HasResultToday(ctx context.Context, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM test_results
			WHERE user_id = $1 AND test_timestamp::date = CURRENT_DATE
		)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки результата за сегодня: %w", err)
	}
	return exists, nil
}

// Count возвращает общее количество результатов.
func (r *resultRepo) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM test_results`).Scan(&total); err != nil {
		return 0, fmt.Errorf("ошибка подсчёта результатов: %w", err)
	}
	return total, nil
}

// CountPassed возвращает количество успешных прохождений.
func (r *resultRepo) CountPassed(ctx context.Context, passingScore int) (int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM test_results WHERE total_score >= $1`, passingScore).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта успешных результатов: %w", err)
	}
	return total, nil
}

// Recent возвращает n последних результатов.
func (r *resultRepo) Recent(ctx context.Context, n int, passingScore int) ([]model.TestResult, error) {
	results, _, err := r.queryResults(ctx, `
		ORDER BY tr.test_timestamp DESC
		LIMIT $2`, []any{passingScore, n}, 0)
	return results, err
}

// queryResults выполняет общий SELECT истории с заданным хвостом запроса.
// args[0] — всегда проходной балл для CASE-статуса.
func (r *resultRepo) queryResults(ctx context.Context, tail string, args []any, total int) ([]model.TestResult, int, error) {
	query := `
		SELECT tr.result_id, tr.user_id, u.name, u.employee_id,
			tr.assessment_score,
			tr.minigame1_score, tr.minigame2_score, tr.minigame3_score,
			tr.minigame4_score, tr.minigame5_score,
			tr.total_score, tr.test_timestamp,
			CASE WHEN tr.total_score >= $1 THEN 'Fit' ELSE 'Unfit' END AS status
		FROM test_results tr
		JOIN users u ON tr.user_id = u.id` + tail

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка получения истории тестов: %w", err)
	}
	defer rows.Close()

	var results []model.TestResult
	for rows.Next() {
		var res model.TestResult
		err := rows.Scan(
			&res.ID, &res.UserID, &res.UserName, &res.EmployeeID,
			&res.AssessmentScore,
			&res.MinigameScores[0], &res.MinigameScores[1], &res.MinigameScores[2],
			&res.MinigameScores[3], &res.MinigameScores[4],
			&res.TotalScore, &res.Timestamp, &res.Status,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования результата: %w", err)
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}
