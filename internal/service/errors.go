// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrValidation — ошибка валидации входных данных.
	ErrValidation = errors.New("ошибка валидации")
	// ErrInvalidCredentials — неверный табельный номер или пароль.
	ErrInvalidCredentials = errors.New("неверный табельный номер или пароль")
	// ErrForbidden — недостаточно прав для операции.
	ErrForbidden = errors.New("недостаточно прав")
	// ErrHRUnavailable — внешний HR API недоступен.
	ErrHRUnavailable = errors.New("HR API недоступен")
	// ErrHRMalformed — внешний HR API вернул некорректные данные.
	ErrHRMalformed = errors.New("HR API вернул некорректные данные")
)
