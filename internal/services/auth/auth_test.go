package auth

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

func TestService_SendSignupOTP(t *testing.T) {
	var gotPath string
	var gotBody SignupDetails
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"message": "OTP sent"}`))
	})

	err := svc.SendSignupOTP(context.Background(), SignupDetails{
		FullName: "Ravi Kumar",
		Email:    "ravi@example.com",
		Password: "secret12",
	})

	require.NoError(t, err)
	assert.Equal(t, "/api/auth/send-otp", gotPath)
	assert.Equal(t, "ravi@example.com", gotBody.Email)
}

func TestService_VerifySignupOTP(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "123456", body["otp"])
		w.Write([]byte(`{"token": "jwt-token", "user": {"fullName": "Ravi Kumar", "isVerified": true}}`))
	})

	result, err := svc.VerifySignupOTP(context.Background(), "ravi@example.com", "123456")

	require.NoError(t, err)
	assert.Equal(t, "jwt-token", result.Token)
	assert.True(t, result.User.IsVerified)
}

func TestService_VerifySignupOTP_Rejected(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message": "Invalid or expired OTP."}`))
	})

	_, err := svc.VerifySignupOTP(context.Background(), "ravi@example.com", "000000")

	require.Error(t, err)
	assert.Equal(t, "Invalid or expired OTP.", api.Message(err, "fallback"))
}

func TestService_Login(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "9876543210", req.MobileNumber)
		assert.Empty(t, req.Email)
		w.Write([]byte(`{"token": "jwt-token", "user": {"customerId": "CFA00042"}}`))
	})

	result, err := svc.Login(context.Background(), LoginRequest{
		MobileNumber: "9876543210",
		Password:     "secret12",
	})

	require.NoError(t, err)
	assert.Equal(t, "CFA00042", result.User.CustomerID)
}

func TestService_Profile(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/auth/profile", r.URL.Path)
		w.Write([]byte(`{"fullName": "Ravi Kumar", "email": "ravi@example.com"}`))
	})

	user, err := svc.Profile(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", user.FullName)
}
