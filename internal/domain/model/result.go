package model

import "time"

// Статусы прохождения теста относительно проходного балла.
const (
	StatusFit   = "Fit"
	StatusUnfit = "Unfit"
)

// TestResult — результат одного прохождения теста. Таблица test_results.
type TestResult struct {
	// ID — числовой идентификатор (result_id)
	ID int
	// UserID — пользователь, прошедший тест
	UserID int
	// AssessmentScore — балл за вопросную часть
	AssessmentScore int
	// MinigameScores — баллы мини-игр 1..5
	MinigameScores [5]int
	// TotalScore — итоговый балл
	TotalScore int
	// Timestamp — время прохождения
	Timestamp time.Time

	// --- Только при чтении истории (JOIN с users) ---

	// UserName — имя пользователя
	UserName string
	// EmployeeID — табельный номер
	EmployeeID string
	// Status — Fit/Unfit относительно minimum_passing_score на момент чтения
	Status string
}

// UserAnswer — ответ пользователя на вопрос в рамках одного результата.
// Таблица user_answers. Текст вопроса денормализован: история ответов
// переживает редактирование и удаление вопросов.
type UserAnswer struct {
	// ID — числовой идентификатор (answer_id)
	ID int
	// ResultID — результат теста, к которому относится ответ
	ResultID int
	// QuestionID — вопрос (может указывать на удалённый вопрос)
	QuestionID int
	// QuestionText — текст вопроса на момент ответа
	QuestionText string
	// Answer — выбранный пользователем вариант
	Answer string
	// CreatedAt — время сохранения
	CreatedAt time.Time
}
