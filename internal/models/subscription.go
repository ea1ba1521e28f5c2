package models

// SubscriptionStatus перечисляет возможные статусы подписки.
// Статус назначается и меняется только бэкендом.
type SubscriptionStatus string

const (
	// StatusActive — подписка оплачена и действует.
	StatusActive SubscriptionStatus = "active"
	// StatusInactive — подписка приостановлена или отменена.
	StatusInactive SubscriptionStatus = "inactive"
	// StatusExpired — срок действия подписки истек.
	StatusExpired SubscriptionStatus = "expired"
)

// Subscription представляет активную запись подписки пользователя.
// У пользователя может быть не более одной активной подписки — это
// инвариант бэкенда, клиент его только отображает.
type Subscription struct {
	PlanID    string             `json:"planId"`    // Идентификатор тарифного плана
	PlanName  string             `json:"planName"`  // Название плана
	Status    SubscriptionStatus `json:"status"`    // Текущий статус
	StartDate string             `json:"startDate"` // Дата начала действия
	EndDate   string             `json:"endDate"`   // Дата окончания действия
	PaymentID string             `json:"paymentId"` // Платеж, активировавший подписку
	Amount    int                `json:"amount"`    // Оплаченная сумма
}

// Member — дополнительный участник семейного плана.
// Оба поля обязательны: запись без имени или почты не передается на бэкенд.
type Member struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// SubscriptionPlan — элемент каталога тарифов. С точки зрения клиента
// план неизменяем, управление каталогом доступно только администратору.
type SubscriptionPlan struct {
	ID             string   `json:"_id"`                    // Идентификатор записи в каталоге
	PlanID         string   `json:"planId"`                 // Публичный код плана
	PlanName       string   `json:"planName"`               // Название плана
	Description    string   `json:"description"`            // Описание
	Price          int      `json:"price"`                  // Цена в основных единицах валюты
	SpecialPrice   *int     `json:"specialPrice,omitempty"` // Акционная цена, nil если акции нет
	Duration       int      `json:"duration"`               // Длительность в месяцах
	MaxMembers     int      `json:"maxMembers"`             // Максимум участников, включая владельца
	Features       []string `json:"features"`               // Список возможностей плана
	IsSpecialOffer bool     `json:"isSpecialOffer"`         // Признак акционного предложения
	IsActive       bool     `json:"isActive,omitempty"`     // Доступен ли план для покупки
}

// EffectivePrice возвращает цену к оплате: акционную, если она задана,
// иначе базовую.
func (p SubscriptionPlan) EffectivePrice() int {
	if p.SpecialPrice != nil {
		return *p.SpecialPrice
	}
	return p.Price
}

// MemberSlots возвращает количество мест для дополнительных участников.
func (p SubscriptionPlan) MemberSlots() int {
	if p.MaxMembers <= 1 {
		return 0
	}
	return p.MaxMembers - 1
}

// Order — дескриптор платежного намерения, создаваемого бэкендом перед
// открытием платежного виджета. Amount указан в основных единицах валюты.
type Order struct {
	OrderID  string      `json:"orderId"`
	Amount   int         `json:"amount"`
	Currency string      `json:"currency"`
	IsFree   bool        `json:"isFreeUser"`
	Plan     OrderedPlan `json:"plan"`
}

// OrderedPlan — краткая сводка плана внутри дескриптора заказа.
type OrderedPlan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Duration    int    `json:"duration"`
	MaxMembers  int    `json:"maxMembers"`
}
