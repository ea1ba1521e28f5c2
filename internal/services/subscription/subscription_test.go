package subscription

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cfaprotection/portal/internal/api"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(api.New(srv.URL, time.Second, nil, newNoopLogger()), newNoopLogger())
}

func TestService_Plans(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/subscription/plans", r.URL.Path)
		w.Write([]byte(`[{"planId": "family", "planName": "Family", "price": 999, "specialPrice": 499, "maxMembers": 4}]`))
	})

	plans, err := svc.Plans(context.Background())

	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, 499, plans[0].EffectivePrice())
	assert.Equal(t, 3, plans[0].MemberSlots())
}

func TestService_CreateOrder(t *testing.T) {
	var gotReq CreateOrderRequest
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/subscription/create-order", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"orderId": "order_ABC", "amount": 999, "currency": "INR"}`))
	})

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{PlanID: "family"})

	require.NoError(t, err)
	assert.Equal(t, "family", gotReq.PlanID)
	assert.Equal(t, "order_ABC", order.OrderID)
	assert.False(t, order.IsFree)
}

func TestService_CreateOrder_FreeUser(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"orderId": "FREE", "amount": 0, "isFreeUser": true}`))
	})

	order, err := svc.CreateOrder(context.Background(), CreateOrderRequest{PlanID: "basic"})

	require.NoError(t, err)
	assert.True(t, order.IsFree)
	assert.Zero(t, order.Amount)
}

func TestService_VerifyPayment(t *testing.T) {
	var gotReq VerifyPaymentRequest
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte(`{"message": "Payment verified", "subscription": {"planName": "Family", "status": "active"}}`))
	})

	result, err := svc.VerifyPayment(context.Background(), VerifyPaymentRequest{
		OrderID:   "order_ABC",
		PaymentID: "pay_XYZ",
		Signature: "sig",
	})

	require.NoError(t, err)
	assert.Equal(t, "order_ABC", gotReq.OrderID)
	assert.Equal(t, "pay_XYZ", gotReq.PaymentID)
	assert.Equal(t, "Family", result.Subscription.PlanName)
}

func TestService_MySubscription_Unauthorized(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "token expired"}`))
	})

	_, err := svc.MySubscription(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrUnauthorized)
}

func TestService_Cancel(t *testing.T) {
	var gotPath, gotMethod string
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.Write([]byte(`{"message": "Subscription cancelled"}`))
	})

	require.NoError(t, svc.Cancel(context.Background()))
	assert.Equal(t, "/api/subscription/cancel", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
}

func TestService_Payments(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/subscription/payments", r.URL.Path)
		w.Write([]byte(`[{"razorpayOrderId": "order_ABC", "amount": 999, "status": "captured"}]`))
	})

	payments, err := svc.Payments(context.Background())

	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "order_ABC", payments[0].RazorpayOrderID)
}
