// Package formrelay предоставляет сервис приема контактных форм сайта.
package formrelay

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cfaprotection/portal/internal/formrelay/handlers/submit"
)

// RegisterRoutes регистрирует все маршруты сервиса.
func RegisterRoutes(r chi.Router, logger *slog.Logger, sender submit.Sender) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
		}),
	)

	r.Post("/api/submit-form", submit.New(logger, sender).ServeHTTP)

	r.Handle("/metrics", promhttp.Handler())
}
