package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cfaprotection/portal/internal/gateway"
	"github.com/cfaprotection/portal/internal/models"
	"github.com/cfaprotection/portal/internal/services/subscription"
)

type SubscriptionServiceMock struct {
	mock.Mock
}

func (m *SubscriptionServiceMock) CreateOrder(ctx context.Context, req subscription.CreateOrderRequest) (*models.Order, error) {
	args := m.Called(ctx, req)
	order, _ := args.Get(0).(*models.Order)
	return order, args.Error(1)
}

func (m *SubscriptionServiceMock) VerifyPayment(ctx context.Context, req subscription.VerifyPaymentRequest) (*subscription.ActiveSubscription, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*subscription.ActiveSubscription)
	return result, args.Error(1)
}

type GatewayMock struct {
	mock.Mock
}

func (m *GatewayMock) Checkout(ctx context.Context, opts gateway.Options) (*gateway.Completion, error) {
	args := m.Called(ctx, opts)
	completion, _ := args.Get(0).(*gateway.Completion)
	return completion, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func paidPlan() models.SubscriptionPlan {
	return models.SubscriptionPlan{
		ID:         "64fa11",
		PlanID:     "family",
		PlanName:   "Family Shield",
		Price:      999,
		Duration:   12,
		MaxMembers: 4,
	}
}

func activeResult() *subscription.ActiveSubscription {
	return &subscription.ActiveSubscription{
		Subscription: models.Subscription{
			PlanID:   "family",
			PlanName: "Family Shield",
			Status:   models.StatusActive,
			Amount:   999,
		},
	}
}

func newWorkflow(svc SubscriptionService, gw gateway.Gateway) *Workflow {
	return New(newNoopLogger(), svc, gw, "rzp_test_key", Payer{Name: "A B", Email: "a@b.com"})
}

func TestSelectPlan_MemberBounds(t *testing.T) {
	plan := paidPlan() // MaxMembers = 4, значит ровно 3 места

	tests := []struct {
		name    string
		members []models.Member
		wantErr error
	}{
		{
			name: "four filled members for three slots",
			members: []models.Member{
				{Name: "M1", Email: "m1@x.com"},
				{Name: "M2", Email: "m2@x.com"},
				{Name: "M3", Email: "m3@x.com"},
				{Name: "M4", Email: "m4@x.com"},
			},
			wantErr: ErrTooManyMembers,
		},
		{
			name:    "member with name but no email",
			members: []models.Member{{Name: "M1"}},
			wantErr: ErrIncompleteMember,
		},
		{
			name:    "member with invalid email",
			members: []models.Member{{Name: "M1", Email: "not-an-email"}},
			wantErr: ErrIncompleteMember,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(SubscriptionServiceMock)
			w := newWorkflow(svc, new(GatewayMock))

			err := w.SelectPlan(context.Background(), plan, tt.members)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, StatePlanSelection, w.State())
			svc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestSelectPlan_DropsEmptyRowsAndCreatesOrder(t *testing.T) {
	members := []models.Member{
		{Name: "M1", Email: "m1@x.com"},
		{}, // пустая строка формы
		{Name: "M2", Email: "m2@x.com"},
	}

	svc := new(SubscriptionServiceMock)
	svc.On("CreateOrder", mock.Anything, subscription.CreateOrderRequest{
		PlanID: "64fa11",
		AdditionalMembers: []models.Member{
			{Name: "M1", Email: "m1@x.com"},
			{Name: "M2", Email: "m2@x.com"},
		},
	}).Return(&models.Order{OrderID: "order_1", Amount: 999, Currency: "INR"}, nil).Once()

	w := newWorkflow(svc, new(GatewayMock))
	require.NoError(t, w.SelectPlan(context.Background(), paidPlan(), members))

	assert.Equal(t, StateOrderCreated, w.State())
	require.NotNil(t, w.Order())
	assert.Equal(t, "order_1", w.Order().OrderID)
	svc.AssertExpectations(t)
}

func TestSelectPlan_OrderFailureGoesToFailed(t *testing.T) {
	svc := new(SubscriptionServiceMock)
	svc.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, errors.New("network down")).Once()

	w := newWorkflow(svc, new(GatewayMock))
	err := w.SelectPlan(context.Background(), paidPlan(), nil)

	require.Error(t, err)
	assert.Equal(t, StateFailed, w.State())
	assert.Equal(t, "Checkout failed", w.Message())

	// Retry возвращает к выбору тарифа.
	require.NoError(t, w.Retry())
	assert.Equal(t, StatePlanSelection, w.State())
	assert.Empty(t, w.Message())
}

func TestCompletePayment_ZeroAmountSkipsGateway(t *testing.T) {
	svc := new(SubscriptionServiceMock)
	svc.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&models.Order{OrderID: "order_free", Amount: 0, Currency: "INR", IsFree: true}, nil).Once()
	svc.On("VerifyPayment", mock.Anything, subscription.VerifyPaymentRequest{
		OrderID:   "order_free",
		PaymentID: "FREE",
		Signature: "FREE",
	}).Return(activeResult(), nil).Once()

	gw := new(GatewayMock)
	w := newWorkflow(svc, gw)
	require.NoError(t, w.SelectPlan(context.Background(), paidPlan(), nil))
	require.NoError(t, w.CompletePayment(context.Background()))

	assert.Equal(t, StateVerified, w.State())
	gw.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
	svc.AssertExpectations(t)
}

func TestCompletePayment_MinorUnitConversion(t *testing.T) {
	svc := new(SubscriptionServiceMock)
	svc.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&models.Order{OrderID: "order_1", Amount: 999, Currency: "INR"}, nil).Once()
	svc.On("VerifyPayment", mock.Anything, mock.Anything).
		Return(activeResult(), nil).Once()

	gw := new(GatewayMock)
	gw.On("Checkout", mock.Anything, gateway.Options{
		Key:          "rzp_test_key",
		Amount:       99900, // 999 в минорных единицах
		Currency:     "INR",
		OrderID:      "order_1",
		Name:         "CFA Subscription",
		PrefillName:  "A B",
		PrefillEmail: "a@b.com",
	}).Return(&gateway.Completion{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: "sig_1",
	}, nil).Once()

	w := newWorkflow(svc, gw)
	require.NoError(t, w.SelectPlan(context.Background(), paidPlan(), nil))
	require.NoError(t, w.CompletePayment(context.Background()))

	assert.Equal(t, StateVerified, w.State())
	gw.AssertExpectations(t)
}

func TestCompletePayment_RelaysCallbackFieldsVerbatim(t *testing.T) {
	members := []models.Member{{Name: "M1", Email: "m1@x.com"}}

	svc := new(SubscriptionServiceMock)
	svc.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&models.Order{OrderID: "order_1", Amount: 499, Currency: "INR"}, nil).Once()
	svc.On("VerifyPayment", mock.Anything, subscription.VerifyPaymentRequest{
		OrderID:           "order_cb",
		PaymentID:         "pay_cb",
		Signature:         "opaque-signature",
		AdditionalMembers: members,
	}).Return(activeResult(), nil).Once()

	gw := new(GatewayMock)
	gw.On("Checkout", mock.Anything, mock.Anything).Return(&gateway.Completion{
		OrderID:   "order_cb",
		PaymentID: "pay_cb",
		Signature: "opaque-signature",
	}, nil).Once()

	w := newWorkflow(svc, gw)
	require.NoError(t, w.SelectPlan(context.Background(), paidPlan(), members))
	require.NoError(t, w.CompletePayment(context.Background()))

	svc.AssertExpectations(t)
}

func TestCompletePayment_DismissedReturnsToPlanSelection(t *testing.T) {
	svc := new(SubscriptionServiceMock)
	svc.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&models.Order{OrderID: "order_1", Amount: 999, Currency: "INR"}, nil).Once()

	gw := new(GatewayMock)
	gw.On("Checkout", mock.Anything, mock.Anything).
		Return(nil, gateway.ErrDismissed).Once()

	w := newWorkflow(svc, gw)
	require.NoError(t, w.SelectPlan(context.Background(), paidPlan(), nil))

	err := w.CompletePayment(context.Background())

	assert.ErrorIs(t, err, gateway.ErrDismissed)
	assert.Equal(t, StatePlanSelection, w.State())
	assert.Equal(t, "Payment was not completed", w.Message())
	assert.Nil(t, w.Order())
	assert.Nil(t, w.Subscription())
	svc.AssertNotCalled(t, "VerifyPayment", mock.Anything, mock.Anything)
}

func TestCompletePayment_VerificationFailureGoesToFailed(t *testing.T) {
	svc := new(SubscriptionServiceMock)
	svc.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&models.Order{OrderID: "order_1", Amount: 999, Currency: "INR"}, nil).Once()
	svc.On("VerifyPayment", mock.Anything, mock.Anything).
		Return(nil, errors.New("signature mismatch")).Once()

	gw := new(GatewayMock)
	gw.On("Checkout", mock.Anything, mock.Anything).Return(&gateway.Completion{
		OrderID:   "order_1",
		PaymentID: "pay_1",
		Signature: "bad",
	}, nil).Once()

	w := newWorkflow(svc, gw)
	require.NoError(t, w.SelectPlan(context.Background(), paidPlan(), nil))

	require.Error(t, w.CompletePayment(context.Background()))
	assert.Equal(t, StateFailed, w.State())
	assert.Nil(t, w.Subscription())

	require.NoError(t, w.Retry())
	assert.Equal(t, StatePlanSelection, w.State())
}

func TestInvalidTransitions(t *testing.T) {
	w := newWorkflow(new(SubscriptionServiceMock), new(GatewayMock))

	assert.ErrorIs(t, w.CompletePayment(context.Background()), ErrInvalidTransition)
	assert.ErrorIs(t, w.Retry(), ErrInvalidTransition)
}
