// Package models содержит доменные структуры клиентской части портала:
// пользователь, администратор, подписка, тарифный план, платеж и медиа-материал.
// Структуры повторяют JSON-контракты REST-бэкенда и используются сервисами и воркфлоу.
package models

// User представляет зарегистрированного клиента сервиса.
type User struct {
	ID           string `json:"id"`                     // Уникальный идентификатор пользователя
	FullName     string `json:"fullName"`               // Полное имя
	Email        string `json:"email"`                  // Электронная почта
	MobileNumber string `json:"mobileNumber,omitempty"` // Номер телефона (опционально)
	CustomerID   string `json:"customerId"`             // Клиентский номер, выдается бэкендом
	IsVerified   bool   `json:"isVerified,omitempty"`   // Подтверждена ли учетная запись по OTP
}

// Admin представляет учетную запись администраторской консоли.
// Администратор аутентифицируется отдельно от клиента и имеет собственную сессию.
type Admin struct {
	ID       string `json:"id"`       // Уникальный идентификатор администратора
	Username string `json:"username"` // Имя учетной записи
	Email    string `json:"email"`    // Электронная почта
	Role     string `json:"role"`     // Роль администратора
}
