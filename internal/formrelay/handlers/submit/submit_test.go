package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cfaprotection/portal/internal/models"
)

type SenderMock struct {
	mock.Mock
}

func (m *SenderMock) SendContactForm(form models.ContactForm) error {
	return m.Called(form).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestSubmitHandler_ServeHTTP(t *testing.T) {
	validForm := models.ContactForm{
		FullName: "A B",
		Email:    "a@b.com",
		Phone:    "9876543210",
		City:     "Mumbai",
	}

	tests := []struct {
		name           string
		requestBody    any
		senderErr      error
		expectForward  bool
		wantStatusCode int
		wantStatus     string
		wantError      string
	}{
		{
			name:           "valid form",
			requestBody:    validForm,
			expectForward:  true,
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "missing required fields",
			requestBody:    models.ContactForm{FullName: "A B"},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "field Email is a required field, field Phone is a required field, field City is a required field",
		},
		{
			name:           "smtp failure still accepts the form",
			requestBody:    validForm,
			senderErr:      errors.New("smtp down"),
			expectForward:  true,
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			senderMock := new(SenderMock)
			if tt.expectForward {
				senderMock.On("SendContactForm", validForm).Return(tt.senderErr).Once()
			}

			handler := New(newNoopLogger(), senderMock)

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/submit-form", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			assert.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}

			senderMock.AssertExpectations(t)
		})
	}
}
