package formrelay

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/cfaprotection/portal/internal/config"
	"github.com/cfaprotection/portal/internal/lib/smtp"
	senderservice "github.com/cfaprotection/portal/internal/services/sender"
)

// App — HTTP-сервис приема контактных форм.
type App struct {
	server *http.Server
	logger *slog.Logger
}

// New собирает сервис: SMTP транспорт, отправитель и маршруты.
// Без настроенного SMTP форма принимается, но никуда не пересылается.
func New(cfg *config.Config, logger *slog.Logger) *App {
	var sender *senderservice.SenderService
	if cfg.SMTPHost != "" {
		transport := smtp.NewTransport(cfg.Relay, logger)
		sender = senderservice.New(transport, cfg.NotifyAddress, logger)
	} else {
		logger.Warn("smtp is not configured, forms will only be logged")
	}

	router := chi.NewRouter()
	if sender != nil {
		RegisterRoutes(router, logger, sender)
	} else {
		RegisterRoutes(router, logger, nil)
	}

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.Relay.Timeout,
		WriteTimeout: cfg.Relay.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
	}
}

// Run запускает сервер и завершает его мягко при отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}
