package models

// PaymentStatus перечисляет статусы платежа на стороне бэкенда.
type PaymentStatus string

const (
	// PaymentPending — заказ создан, оплата еще не подтверждена.
	PaymentPending PaymentStatus = "pending"
	// PaymentSuccess — подпись шлюза проверена бэкендом, платеж засчитан.
	PaymentSuccess PaymentStatus = "success"
	// PaymentFailed — оплата не прошла или подпись не подтверждена.
	PaymentFailed PaymentStatus = "failed"
)

// Payment — запись истории платежей пользователя.
// Платеж помечается успешным только после серверной проверки подписи шлюза,
// клиент никогда не выставляет этот статус сам.
type Payment struct {
	ID                string        `json:"_id"`               // Идентификатор записи
	UserID            string        `json:"userId"`            // Владелец платежа
	SubscriptionID    string        `json:"subscriptionId"`    // Связанная подписка
	RazorpayOrderID   string        `json:"razorpayOrderId"`   // Идентификатор заказа в шлюзе
	RazorpayPaymentID string        `json:"razorpayPaymentId"` // Идентификатор платежа в шлюзе
	Amount            int           `json:"amount"`            // Сумма платежа
	Status            PaymentStatus `json:"status"`            // Статус платежа
	CreatedAt         string        `json:"createdAt"`         // Дата создания записи
}
