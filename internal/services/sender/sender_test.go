package sender

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cfaprotection/portal/internal/lib/smtp"
	"github.com/cfaprotection/portal/internal/models"
)

type ClientMock struct {
	mock.Mock
	body bytes.Buffer
}

func (m *ClientMock) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *ClientMock) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *ClientMock) Data() (io.WriteCloser, error) {
	args := m.Called()
	return nopWriteCloser{&m.body}, args.Error(0)
}

func (m *ClientMock) Quit() error  { return m.Called().Error(0) }
func (m *ClientMock) Close() error { return m.Called().Error(0) }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

type TransportMock struct {
	mock.Mock
	client smtp.Client
}

func (m *TransportMock) Connect() (smtp.Client, error) {
	args := m.Called()
	return m.client, args.Error(0)
}

func (m *TransportMock) GetSMTPUser() string {
	return "forms@example.com"
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func testForm() models.ContactForm {
	return models.ContactForm{
		FullName: "A B",
		Email:    "a@b.com",
		Phone:    "9876543210",
		City:     "Mumbai",
	}
}

func TestSendContactForm(t *testing.T) {
	client := new(ClientMock)
	client.On("Mail", "forms@example.com").Return(nil).Once()
	client.On("Rcpt", "ops@example.com").Return(nil).Once()
	client.On("Data").Return(nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()

	transport := &TransportMock{client: client}
	transport.On("Connect").Return(nil).Once()

	svc := New(transport, "ops@example.com", newNoopLogger())
	require.NoError(t, svc.SendContactForm(testForm()))

	sent := client.body.String()
	assert.Contains(t, sent, "Subject: ")
	assert.Contains(t, sent, "A B")
	assert.Contains(t, sent, "9876543210")
	assert.Contains(t, sent, "Mumbai")
	client.AssertExpectations(t)
}

func TestSendContactForm_ConnectError(t *testing.T) {
	transport := &TransportMock{}
	transport.On("Connect").Return(errors.New("dial failed")).Once()

	svc := New(transport, "ops@example.com", newNoopLogger())
	assert.Error(t, svc.SendContactForm(testForm()))
}
