// Package checkout реализует машину состояний оформления подписки:
// выбор тарифа, создание заказа, оплата через внешний шлюз и серверное
// подтверждение, активирующее подписку.
//
// Состояния выражены типизированным перечислением с явной проверкой
// каждого перехода. Бесплатные заказы минуют шлюз полностью: бэкенду
// сразу отправляется подтверждение с присланными вместо полей шлюза
// значениями-заглушками.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator"

	"github.com/cfaprotection/portal/internal/gateway"
	"github.com/cfaprotection/portal/internal/lib/sl"
	"github.com/cfaprotection/portal/internal/models"
	"github.com/cfaprotection/portal/internal/services/subscription"
)

// State — состояние машины оформления подписки.
type State int

const (
	// StatePlanSelection — выбор тарифа и дополнительных участников.
	StatePlanSelection State = iota
	// StateOrderCreated — бэкенд вернул дескриптор заказа.
	StateOrderCreated
	// StateAwaitingPayment — открыт платежный виджет, ожидается обратный вызов.
	StateAwaitingPayment
	// StateVerified — бэкенд проверил подпись и активировал подписку.
	StateVerified
	// StateFailed — ошибка создания заказа или подтверждения; восстанавливается Retry.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePlanSelection:
		return "plan-selection"
	case StateOrderCreated:
		return "order-created"
	case StateAwaitingPayment:
		return "awaiting-payment"
	case StateVerified:
		return "verified"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Значения-заглушки для подтверждения бесплатного заказа.
const freeSentinel = "FREE"

var (
	// ErrInvalidTransition возвращается при вызове операции не своего состояния.
	ErrInvalidTransition = errors.New("checkout: operation not allowed in current state")
	// ErrTooManyMembers возвращается, когда участников больше, чем мест в плане.
	ErrTooManyMembers = errors.New("too many additional members for this plan")
	// ErrIncompleteMember возвращается для участника с заполненным только одним полем.
	ErrIncompleteMember = errors.New("additional member needs both name and email")
)

// SubscriptionService — операции подписки, используемые воркфлоу.
type SubscriptionService interface {
	CreateOrder(ctx context.Context, req subscription.CreateOrderRequest) (*models.Order, error)
	VerifyPayment(ctx context.Context, req subscription.VerifyPaymentRequest) (*subscription.ActiveSubscription, error)
}

// Payer — данные пользователя для предзаполнения виджета.
type Payer struct {
	Name  string
	Email string
}

// Workflow — машина состояний одного оформления подписки.
// Не предназначена для конкурентного использования.
type Workflow struct {
	state   State
	plan    *models.SubscriptionPlan
	members []models.Member
	order   *models.Order
	result  *subscription.ActiveSubscription
	message string

	keyID string
	payer Payer

	svc      SubscriptionService
	gw       gateway.Gateway
	validate *validator.Validate
	log      *slog.Logger
}

// New создает воркфлоу в состоянии plan-selection.
func New(log *slog.Logger, svc SubscriptionService, gw gateway.Gateway, keyID string, payer Payer) *Workflow {
	return &Workflow{
		state:    StatePlanSelection,
		keyID:    keyID,
		payer:    payer,
		svc:      svc,
		gw:       gw,
		validate: validator.New(),
		log:      log,
	}
}

// State возвращает текущее состояние.
func (w *Workflow) State() State {
	return w.state
}

// Message возвращает текст последней ошибки для отображения пользователю.
func (w *Workflow) Message() string {
	return w.message
}

// Subscription возвращает активированную подписку после StateVerified, иначе nil.
func (w *Workflow) Subscription() *subscription.ActiveSubscription {
	return w.result
}

// Order возвращает созданный дескриптор заказа, иначе nil.
func (w *Workflow) Order() *models.Order {
	return w.order
}

// SelectPlan фиксирует тариф и участников и создает платежный заказ.
//
// Полупустые записи участников отбрасываются; участников не может быть
// больше, чем plan.MaxMembers-1. Ошибка создания заказа переводит машину
// в StateFailed.
func (w *Workflow) SelectPlan(ctx context.Context, plan models.SubscriptionPlan, members []models.Member) error {
	const op = "checkout.SelectPlan"

	if w.state != StatePlanSelection {
		return fmt.Errorf("%s: %w", op, ErrInvalidTransition)
	}

	filled, err := w.collectMembers(plan, members)
	if err != nil {
		return err
	}

	order, err := w.svc.CreateOrder(ctx, subscription.CreateOrderRequest{
		PlanID:            plan.ID,
		AdditionalMembers: filled,
	})
	if err != nil {
		w.log.Error("failed to create order", sl.Err(err))
		w.state = StateFailed
		w.message = "Checkout failed"
		return fmt.Errorf("%s: %w", op, err)
	}

	w.plan = &plan
	w.members = filled
	w.order = order
	w.state = StateOrderCreated
	w.message = ""
	w.log.Info("order created",
		slog.String("order_id", order.OrderID),
		slog.String("plan", plan.PlanName),
		slog.Int("amount", order.Amount))
	return nil
}

// CompletePayment доводит созданный заказ до подтверждения.
//
// Для бесплатного заказа виджет не открывается вовсе: подтверждение
// уходит бэкенду со значениями-заглушками. Для платного заказа сумма
// передается в виджет в минорных единицах; отказ или закрытие виджета
// возвращает машину в plan-selection без какой-либо подписки.
func (w *Workflow) CompletePayment(ctx context.Context) error {
	const op = "checkout.CompletePayment"

	if w.state != StateOrderCreated {
		return fmt.Errorf("%s: %w", op, ErrInvalidTransition)
	}

	if w.order.IsFree || w.order.Amount <= 0 {
		return w.verify(ctx, subscription.VerifyPaymentRequest{
			OrderID:           w.order.OrderID,
			PaymentID:         freeSentinel,
			Signature:         freeSentinel,
			AdditionalMembers: w.members,
		})
	}

	w.state = StateAwaitingPayment
	completion, err := w.gw.Checkout(ctx, gateway.Options{
		Key:          w.keyID,
		Amount:       w.order.Amount * 100,
		Currency:     w.order.Currency,
		OrderID:      w.order.OrderID,
		Name:         "CFA Subscription",
		PrefillName:  w.payer.Name,
		PrefillEmail: w.payer.Email,
	})
	if err != nil {
		w.log.Warn("payment widget did not complete", sl.Err(err))
		w.state = StatePlanSelection
		w.order = nil
		w.message = "Payment was not completed"
		return fmt.Errorf("%s: %w", op, err)
	}

	// Поля обратного вызова передаются бэкенду без изменений:
	// клиент не интерпретирует и не проверяет подпись.
	return w.verify(ctx, subscription.VerifyPaymentRequest{
		OrderID:           completion.OrderID,
		PaymentID:         completion.PaymentID,
		Signature:         completion.Signature,
		AdditionalMembers: w.members,
	})
}

// Retry возвращает машину из StateFailed к выбору тарифа.
func (w *Workflow) Retry() error {
	if w.state != StateFailed {
		return ErrInvalidTransition
	}
	w.state = StatePlanSelection
	w.order = nil
	w.message = ""
	return nil
}

func (w *Workflow) verify(ctx context.Context, req subscription.VerifyPaymentRequest) error {
	const op = "checkout.verify"

	result, err := w.svc.VerifyPayment(ctx, req)
	if err != nil {
		w.log.Error("payment verification failed", sl.Err(err))
		w.state = StateFailed
		w.message = "Payment verification failed"
		return fmt.Errorf("%s: %w", op, err)
	}

	w.result = result
	w.state = StateVerified
	w.message = ""
	w.log.Info("subscription activated",
		slog.String("plan", result.Subscription.PlanName),
		slog.String("status", string(result.Subscription.Status)))
	return nil
}

// collectMembers отбрасывает пустые строки формы, проверяет полноту
// оставшихся записей и их количество против плана.
func (w *Workflow) collectMembers(plan models.SubscriptionPlan, members []models.Member) ([]models.Member, error) {
	var filled []models.Member
	for _, m := range members {
		if m.Name == "" && m.Email == "" {
			continue
		}
		if err := w.validate.Struct(m); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrIncompleteMember, m.Name)
		}
		filled = append(filled, m)
	}
	if len(filled) > plan.MemberSlots() {
		return nil, fmt.Errorf("%w: plan allows %d", ErrTooManyMembers, plan.MemberSlots())
	}
	return filled, nil
}
