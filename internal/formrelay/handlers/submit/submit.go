// Package submit реализует HTTP-обработчик приема заявок с контактной формы.
//
// Handler принимает JSON-заявку, валидирует обязательные поля, пересылает
// заявку на операционную почту и возвращает унифицированный JSON-ответ.
// Ошибка отправки письма логируется, но не мешает принять заявку.
package submit

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cfaprotection/portal/internal/http/response"
	"github.com/cfaprotection/portal/internal/lib/sl"
	"github.com/cfaprotection/portal/internal/models"
)

var submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "form_relay_submissions_total",
	Help: "Contact form submissions by result.",
}, []string{"result"})

// Sender описывает интерфейс пересылки принятой заявки.
type Sender interface {
	SendContactForm(form models.ContactForm) error
}

// Handler управляет HTTP-запросами приема контактной формы.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	sender   Sender              // Пересылка заявки на операционную почту
	validate *validator.Validate // Валидатор структуры входящих данных
}

// New создает новый Handler с переданными логгером и отправителем.
func New(log *slog.Logger, sender Sender) *Handler {
	return &Handler{
		log:      log,
		sender:   sender,
		validate: validator.New(),
	}
}

// ServeHTTP принимает заявку контактной формы.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "formrelay.handlers.submit"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var form models.ContactForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		submissionsTotal.WithLabelValues("invalid").Inc()
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(form); err != nil {
		log.Error("validation failed", sl.Err(err))
		submissionsTotal.WithLabelValues("invalid").Inc()
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	h.forward(log, form)

	submissionsTotal.WithLabelValues("accepted").Inc()
	log.Info("form accepted",
		slog.String("email", form.Email),
		slog.String("city", form.City))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "Form submitted",
	}))
}

// forward пересылает заявку; заявка считается принятой даже при ошибке почты.
func (h *Handler) forward(log *slog.Logger, form models.ContactForm) {
	if h.sender == nil {
		return
	}
	if err := h.sender.SendContactForm(form); err != nil {
		log.Error("failed to forward form by email", sl.Err(err))
	}
}
