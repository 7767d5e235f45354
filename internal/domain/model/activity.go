package model

import "time"

// Типы записей журнала активности.
const (
	ActivityUserCreated     = "user_created"
	ActivityUserDeleted     = "user_deleted"
	ActivitySettingUpdated  = "setting_updated"
	ActivitySyncUsers       = "sync_users"
	ActivityQuestionCreated = "question_created"
	ActivityQuestionUpdated = "question_updated"
	ActivityQuestionDeleted = "question_deleted"
)

// ActivityEntry — неизменяемая запись аудита. Таблица activity_log,
// append-only: записи никогда не обновляются и не удаляются
// (кроме каскадного удаления вместе с пользователем).
type ActivityEntry struct {
	// ID — числовой идентификатор записи
	ID int
	// ActivityType — тег типа события (user_created, sync_users, ...)
	ActivityType string
	// Description — человекочитаемое описание
	Description string
	// UserID — инициатор события; nil для системных событий
	UserID *int
	// Timestamp — серверное время записи
	Timestamp time.Time
	// ActorName — имя инициатора (JOIN с users, только при чтении)
	ActorName string
}
