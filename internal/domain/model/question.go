package model

// Question — вопрос ассессмента. Таблица questions.
// Удаление мягкое: is_active = false, строка сохраняется ради истории ответов.
type Question struct {
	// ID — числовой идентификатор (question_id)
	ID int
	// Text — текст вопроса
	Text string
	// IsActive — false после мягкого удаления
	IsActive bool
	// Answers — варианты ответов (заполняется при чтении)
	Answers []Answer
}

// Answer — вариант ответа на вопрос. Таблица question_answers.
type Answer struct {
	// ID — числовой идентификатор (answer_id)
	ID int
	// QuestionID — вопрос, к которому относится вариант
	QuestionID int
	// Text — текст варианта ответа
	Text string
	// Score — балл за выбор этого варианта
	Score int
}
