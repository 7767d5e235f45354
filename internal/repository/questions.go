package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/smabadi/fitcheck/backend/internal/domain/model"
)

// QuestionRepository — интерфейс для таблиц questions и question_answers.
type QuestionRepository interface {
	// ListActive возвращает активные вопросы вместе с вариантами ответов.
	ListActive(ctx context.Context) ([]model.Question, error)
	// GetByID возвращает вопрос с вариантами. Если не найден — ErrNotFound.
	GetByID(ctx context.Context, id int) (*model.Question, error)
	// Create создаёт вопрос и его варианты в одной транзакции.
	Create(ctx context.Context, q *model.Question) error
	// Update обновляет текст вопроса и полностью заменяет варианты
	// в одной транзакции.
	Update(ctx context.Context, q *model.Question) error
	// Deactivate помечает вопрос неактивным (мягкое удаление).
	Deactivate(ctx context.Context, id int) error
	// CountActive возвращает количество активных вопросов.
	CountActive(ctx context.Context) (int, error)
}

// questionRepo — реализация QuestionRepository.
type questionRepo struct {
	db DBTX
	tx *TxRunner
}

// NewQuestionRepository создаёт репозиторий вопросов.
func NewQuestionRepository(db DBTX, tx *TxRunner) QuestionRepository {
	return &questionRepo{db: db, tx: tx}
}

// ListActive возвращает активные вопросы с вариантами, по возрастанию id.
func (r *questionRepo) ListActive(ctx context.Context) ([]model.Question, error) {
	query := `
		SELECT question_id, question_text, is_active
		FROM questions
		WHERE is_active = TRUE
		ORDER BY question_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения вопросов: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.IsActive); err != nil {
			return nil, fmt.Errorf("ошибка сканирования вопроса: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Варианты одним запросом на все вопросы, затем раскладка по карте.
	if err := r.attachAnswers(ctx, questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// GetByID возвращает вопрос с вариантами ответов.
func (r *questionRepo) GetByID(ctx context.Context, id int) (*model.Question, error) {
	query := `
		SELECT question_id, question_text, is_active
		FROM questions
		WHERE question_id = $1`

	q := &model.Question{}
	err := r.db.QueryRow(ctx, query, id).Scan(&q.ID, &q.Text, &q.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения вопроса %d: %w", id, err)
	}

	single := []model.Question{*q}
	if err := r.attachAnswers(ctx, single); err != nil {
		return nil, err
	}
	return &single[0], nil
}

// Create создаёт вопрос и варианты в одной транзакции, заполняет q.ID.
func (r *questionRepo) Create(ctx context.Context, q *model.Question) error {
	return r.tx.RunInTx(ctx, func(db DBTX) error {
		err := db.QueryRow(ctx, `
			INSERT INTO questions (question_text)
			VALUES ($1)
			RETURNING question_id`, q.Text).Scan(&q.ID)
		if err != nil {
			return fmt.Errorf("ошибка создания вопроса: %w", err)
		}
		return insertAnswers(ctx, db, q.ID, q.Answers)
	})
}

// Update обновляет текст вопроса и заменяет все варианты.
func (r *questionRepo) Update(ctx context.Context, q *model.Question) error {
	return r.tx.RunInTx(ctx, func(db DBTX) error {
		tag, err := db.Exec(ctx, `
			UPDATE questions SET question_text = $1
			WHERE question_id = $2`, q.Text, q.ID)
		if err != nil {
			return fmt.Errorf("ошибка обновления вопроса %d: %w", q.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		if _, err := db.Exec(ctx, `
			DELETE FROM question_answers WHERE question_id = $1`, q.ID); err != nil {
			return fmt.Errorf("ошибка удаления вариантов вопроса %d: %w", q.ID, err)
		}
		return insertAnswers(ctx, db, q.ID, q.Answers)
	})
}

// Deactivate — мягкое удаление: строка остаётся ради истории ответов.
func (r *questionRepo) Deactivate(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE questions SET is_active = FALSE
		WHERE question_id = $1 AND is_active = TRUE`, id)
	if err != nil {
		return fmt.Errorf("ошибка деактивации вопроса %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountActive возвращает количество активных вопросов.
func (r *questionRepo) CountActive(ctx context.Context) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE is_active = TRUE`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта вопросов: %w", err)
	}
	return total, nil
}

// attachAnswers заполняет Answers для каждого вопроса из среза.
func (r *questionRepo) attachAnswers(ctx context.Context, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}

	ids := make([]int, len(questions))
	index := make(map[int]*model.Question, len(questions))
	for i := range questions {
		ids[i] = questions[i].ID
		index[questions[i].ID] = &questions[i]
	}

	query := `
		SELECT answer_id, question_id, answer_text, score
		FROM question_answers
		WHERE question_id = ANY($1)
		ORDER BY answer_id`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("ошибка получения вариантов ответов: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Score); err != nil {
			return fmt.Errorf("ошибка сканирования варианта ответа: %w", err)
		}
		if q, ok := index[a.QuestionID]; ok {
			q.Answers = append(q.Answers, a)
		}
	}
	return rows.Err()
}

func insertAnswers(ctx context.Context, db DBTX, questionID int, answers []model.Answer) error {
	for i := range answers {
		err := db.QueryRow(ctx, `
			INSERT INTO question_answers (question_id, answer_text, score)
			VALUES ($1, $2, $3)
			RETURNING answer_id`, questionID, answers[i].Text, answers[i].Score).Scan(&answers[i].ID)
		if err != nil {
			return fmt.Errorf("ошибка создания варианта ответа: %w", err)
		}
		answers[i].QuestionID = questionID
	}
	return nil
}
