// Package gateway описывает контракт внешнего платежного шлюза.
//
// Клиент открывает виджет с параметрами заказа и получает обратно поля
// обратного вызова. Подпись из обратного вызова нигде не проверяется на
// клиенте — она передается бэкенду как есть, право подтверждения платежа
// целиком серверное.
package gateway

import (
	"context"
	"errors"
)

// ErrDismissed возвращается, когда пользователь закрыл виджет, не оплатив.
var ErrDismissed = errors.New("gateway: checkout dismissed")

// Options — параметры открытия виджета. Amount указывается в минорных
// единицах валюты (пайсы для INR), то есть цена заказа, умноженная на 100.
type Options struct {
	Key          string // Публичный ключ шлюза
	Amount       int    // Сумма в минорных единицах
	Currency     string // Код валюты заказа
	OrderID      string // Идентификатор заказа, созданного бэкендом
	Name         string // Название продавца в виджете
	PrefillName  string // Предзаполненное имя плательщика
	PrefillEmail string // Предзаполненная почта плательщика
}

// Completion — поля успешного обратного вызова шлюза.
type Completion struct {
	OrderID   string // razorpay_order_id
	PaymentID string // razorpay_payment_id
	Signature string // razorpay_signature, непрозрачная строка для клиента
}

// Gateway открывает процесс оплаты и блокируется до его завершения.
type Gateway interface {
	Checkout(ctx context.Context, opts Options) (*Completion, error)
}
