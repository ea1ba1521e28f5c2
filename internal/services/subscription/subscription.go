// Package subscription реализует клиент эндпоинтов подписки: каталог
// тарифов, создание заказа, подтверждение оплаты и история платежей.
package subscription

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cfaprotection/portal/internal/api"
	"github.com/cfaprotection/portal/internal/models"
)

// CreateOrderRequest — тело запроса создания платежного заказа.
type CreateOrderRequest struct {
	PlanID            string          `json:"planId"`
	AdditionalMembers []models.Member `json:"additionalMembers,omitempty"`
}

// VerifyPaymentRequest — поля обратного вызова шлюза, передаваемые
// бэкенду без изменений. Клиент не формирует и не проверяет подпись:
// право подтверждать платеж принадлежит только серверу.
type VerifyPaymentRequest struct {
	OrderID           string          `json:"orderId"`
	PaymentID         string          `json:"paymentId"`
	Signature         string          `json:"signature"`
	AdditionalMembers []models.Member `json:"additionalMembers,omitempty"`
}

// ActiveSubscription — ответ бэкенда с активной подпиской пользователя.
type ActiveSubscription struct {
	Message           string              `json:"message,omitempty"`
	Subscription      models.Subscription `json:"subscription"`
	AdditionalMembers []models.Member     `json:"additionalMembers,omitempty"`
}

// Service предоставляет операции подписки клиентской поверхности.
type Service struct {
	client *api.Client
	log    *slog.Logger
}

// New создает новый Service поверх клиента бэкенда.
func New(client *api.Client, log *slog.Logger) *Service {
	return &Service{client: client, log: log}
}

// Plans возвращает каталог доступных тарифных планов.
func (s *Service) Plans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	const op = "subscription.Plans"

	var plans []models.SubscriptionPlan
	if err := s.client.Get(ctx, "/api/subscription/plans", &plans); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// CreateOrder создает платежный заказ для выбранного плана.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	const op = "subscription.CreateOrder"

	var order models.Order
	if err := s.client.Post(ctx, "/api/subscription/create-order", req, &order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("order created",
		slog.String("order_id", order.OrderID),
		slog.Int("amount", order.Amount))
	return &order, nil
}

// VerifyPayment передает поля обратного вызова шлюза на серверную проверку.
// Успешный ответ содержит активированную подписку.
func (s *Service) VerifyPayment(ctx context.Context, req VerifyPaymentRequest) (*ActiveSubscription, error) {
	const op = "subscription.VerifyPayment"

	var result ActiveSubscription
	if err := s.client.Post(ctx, "/api/subscription/verify-payment", req, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("payment verified", slog.String("order_id", req.OrderID))
	return &result, nil
}

// MySubscription возвращает текущую подписку пользователя.
func (s *Service) MySubscription(ctx context.Context) (*ActiveSubscription, error) {
	const op = "subscription.MySubscription"

	var result ActiveSubscription
	if err := s.client.Get(ctx, "/api/subscription/my-subscription", &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// Cancel отменяет текущую подписку пользователя.
func (s *Service) Cancel(ctx context.Context) error {
	const op = "subscription.Cancel"

	if err := s.client.Post(ctx, "/api/subscription/cancel", nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Payments возвращает историю платежей пользователя.
func (s *Service) Payments(ctx context.Context) ([]models.Payment, error) {
	const op = "subscription.Payments"

	var payments []models.Payment
	if err := s.client.Get(ctx, "/api/subscription/payments", &payments); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}
