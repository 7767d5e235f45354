package model

import "time"

// ExternalEmployee — запись сотрудника из внешнего HR API.
// Разные инсталляции HR-системы отдают разные имена полей
// (empName/name, empNumber/empID/employee_id) — декодер принимает все варианты.
type ExternalEmployee struct {
	EmpName    string `json:"empName"`
	Name       string `json:"name"`
	EmpNumber  string `json:"empNumber"`
	EmpID      string `json:"empID"`
	EmployeeID string `json:"employee_id"`
}

// DisplayName возвращает имя сотрудника, учитывая варианты полей.
func (e *ExternalEmployee) DisplayName() string {
	if e.EmpName != "" {
		return e.EmpName
	}
	return e.Name
}

// EmployeeNumber возвращает табельный номер, учитывая варианты полей.
func (e *ExternalEmployee) EmployeeNumber() string {
	if e.EmpNumber != "" {
		return e.EmpNumber
	}
	if e.EmpID != "" {
		return e.EmpID
	}
	return e.EmployeeID
}

// HRSyncResult — итог одной синхронизации с HR API.
// Не персистируется: живёт в HTTP-ответе и одной строке activity_log.
type HRSyncResult struct {
	// Total — количество записей во внешнем ростере (включая пропущенные)
	Total int
	// Added — новых пользователей создано
	Added int
	// Updated — существующих пользователей обновлено (имя)
	Updated int
	// Skipped — записей пропущено (нет имени или табельного номера)
	Skipped int
	// SyncedAt — время завершения синхронизации
	SyncedAt time.Time
}
