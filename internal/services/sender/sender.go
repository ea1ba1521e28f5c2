// Package sender реализует отправку уведомлений о заявках с контактной
// формы на операционную почту.
package sender

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/cfaprotection/portal/internal/lib/sl"
	"github.com/cfaprotection/portal/internal/lib/smtp"
	"github.com/cfaprotection/portal/internal/models"
)

// SenderService пересылает формы через SMTP транспорт.
type SenderService struct {
	transport     smtp.TransportInterface
	notifyAddress string
	log           *slog.Logger
}

// New создает новый экземпляр SenderService.
func New(transport smtp.TransportInterface, notifyAddress string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport:     transport,
		notifyAddress: notifyAddress,
		log:           log,
	}
}

// SendContactForm отправляет содержимое заявки на операционную почту.
func (s *SenderService) SendContactForm(form models.ContactForm) error {
	subject := "Новая заявка с контактной формы"
	bodyText := fmt.Sprintf(
		"Имя: %s\nEmail: %s\nТелефон: %s\nГород: %s\n",
		form.FullName, form.Email, form.Phone, form.City)

	return s.sendEmail([]string{s.notifyAddress}, subject, bodyText)
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("Failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("Failed to set MAIL FROM", "from", s.transport.GetSMTPUser(), "error", sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("Failed to set RCPT TO", "recipient", addr, "error", sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("Failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		s.log.Error("Failed to write message body", sl.Err(err))
		wc.Close()
		return err
	}
	if err := wc.Close(); err != nil {
		s.log.Error("Failed to close Data writer", sl.Err(err))
		return err
	}

	return client.Quit()
}
