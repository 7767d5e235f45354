// Пакет model — доменные модели FitCheck Backend.
package model

// Роли пользователей.
const (
	// RoleAdmin — администратор: доступ к админ-панели и CRUD-операциям.
	RoleAdmin = "admin"
	// RoleUser — обычный сотрудник: проходит тестирование через Android-клиент.
	RoleUser = "user"
)

// User — пользователь системы. Хранится в таблице users.
// employee_id — внешний натуральный ключ, связывающий запись
// с кадровой системой (HR API).
type User struct {
	// ID — локальный числовой идентификатор (serial)
	ID int
	// EmployeeID — табельный номер сотрудника, глобально уникален
	EmployeeID string
	// Name — отображаемое имя, обновляется при синхронизации с HR
	Name string
	// Role — роль (admin, user)
	Role string
	// Password — bcrypt-хэш пароля; пустая строка для не-админов
	Password string
}

// ValidRole проверяет, что роль входит в допустимый набор.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}
