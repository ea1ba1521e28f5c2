// Package signup реализует машину состояний регистрации пользователя:
// сбор данных аккаунта, подтверждение по OTP и установка сессии.
//
// Шаги выражены типизированным перечислением, каждый переход проверяется
// явно: вызов операции не своего шага возвращает ErrInvalidTransition,
// а не молча игнорируется. Повторная отправка кода ограничена окном в 60
// секунд через rate.Limiter; остаток окна отсчитывает отменяемый таймер,
// который освобождается вызовом Close при завершении или отказе от
// регистрации.
package signup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"golang.org/x/time/rate"

	"github.com/cfaprotection/portal/internal/lib/countdown"
	"github.com/cfaprotection/portal/internal/lib/sl"
	"github.com/cfaprotection/portal/internal/models"
	"github.com/cfaprotection/portal/internal/services/auth"
)

// Step — шаг машины состояний регистрации.
type Step int

const (
	// StepDetails — сбор имени, почты, телефона и пароля.
	StepDetails Step = iota
	// StepOTP — ожидание шестизначного кода подтверждения.
	StepOTP
	// StepPlan — необязательный выбор тарифного плана после подтверждения.
	StepPlan
	// StepDone — сессия установлена, регистрация завершена.
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepOTP:
		return "otp"
	case StepPlan:
		return "plan"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

var (
	// ErrInvalidTransition возвращается при вызове операции не своего шага.
	ErrInvalidTransition = errors.New("signup: operation not allowed in current step")
	// ErrInvalidOTP возвращается до любого сетевого вызова,
	// если код не состоит ровно из шести цифр.
	ErrInvalidOTP = errors.New("enter valid 6-digit OTP")
	// ErrResendNotReady возвращается, пока окно повторной отправки не истекло.
	ErrResendNotReady = errors.New("resend not ready")
)

// ValidationError — локальная ошибка валидации, отображаемая рядом с полем формы.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Details — данные формы регистрации вместе с подтверждением пароля.
type Details struct {
	FullName        string
	Email           string
	MobileNumber    string
	Password        string
	ConfirmPassword string
}

// AuthService — операции аутентификации, используемые воркфлоу.
type AuthService interface {
	SendSignupOTP(ctx context.Context, details auth.SignupDetails) error
	VerifySignupOTP(ctx context.Context, email, otp string) (*auth.AuthResult, error)
}

// SessionStore — установка сессии после успешной проверки кода.
type SessionStore interface {
	Login(principal any, token string) error
}

// Option настраивает воркфлоу при создании.
type Option func(*Workflow)

// WithPlanSelection включает шаг выбора тарифа после подтверждения кода.
func WithPlanSelection() Option {
	return func(w *Workflow) { w.withPlan = true }
}

// WithResendWindow меняет окно повторной отправки кода (по умолчанию 60 секунд).
func WithResendWindow(d time.Duration) Option {
	return func(w *Workflow) { w.resendWindow = d }
}

var otpPattern = regexp.MustCompile(`^\d{6}$`)

// Workflow — машина состояний регистрации. Экземпляр обслуживает одну
// попытку регистрации и не предназначен для конкурентного использования.
type Workflow struct {
	step         Step
	details      auth.SignupDetails
	otp          string
	withPlan     bool
	resendWindow time.Duration
	resendGuard  *rate.Limiter
	timer        *countdown.Timer
	user         *models.User

	svc      AuthService
	session  SessionStore
	validate *validator.Validate
	log      *slog.Logger
}

// New создает воркфлоу в шаге details.
func New(log *slog.Logger, svc AuthService, session SessionStore, opts ...Option) *Workflow {
	w := &Workflow{
		step:         StepDetails,
		resendWindow: 60 * time.Second,
		timer:        countdown.New(),
		svc:          svc,
		session:      session,
		validate:     validator.New(),
		log:          log,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Step возвращает текущий шаг.
func (w *Workflow) Step() Step {
	return w.step
}

// OTP возвращает введенные цифры кода; после неудачной проверки они сохраняются.
func (w *Workflow) OTP() string {
	return w.otp
}

// User возвращает пользователя после успешного подтверждения, иначе nil.
func (w *Workflow) User() *models.User {
	return w.user
}

// ResendIn возвращает остаток окна повторной отправки в секундах.
func (w *Workflow) ResendIn() int {
	return w.timer.RemainingSeconds()
}

// CountdownTicks отдает канал посекундного отсчета для отображения.
func (w *Workflow) CountdownTicks() <-chan int {
	return w.timer.Ticks()
}

// SubmitDetails валидирует форму и запрашивает отправку кода подтверждения.
// При любой ошибке воркфлоу остается в шаге details; сетевой вызов
// выполняется только после прохождения локальной валидации.
func (w *Workflow) SubmitDetails(ctx context.Context, form Details) error {
	const op = "signup.SubmitDetails"

	if w.step != StepDetails {
		return fmt.Errorf("%s: %w", op, ErrInvalidTransition)
	}

	details := auth.SignupDetails{
		FullName:     strings.TrimSpace(form.FullName),
		Email:        strings.TrimSpace(form.Email),
		MobileNumber: strings.TrimSpace(form.MobileNumber),
		Password:     form.Password,
	}
	if verr := w.validateDetails(details, form.ConfirmPassword); verr != nil {
		return verr
	}

	if err := w.svc.SendSignupOTP(ctx, details); err != nil {
		w.log.Error("failed to send signup otp", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	w.details = details
	w.step = StepOTP
	w.otp = ""
	w.armResend()
	w.log.Info("signup otp sent", slog.String("email", details.Email))
	return nil
}

// SubmitOTP проверяет код на бэкенде и при успехе устанавливает сессию.
// Код неверной длины отклоняется до сетевого вызова; при отказе бэкенда
// шаг и введенные цифры сохраняются.
func (w *Workflow) SubmitOTP(ctx context.Context, code string) error {
	const op = "signup.SubmitOTP"

	if w.step != StepOTP {
		return fmt.Errorf("%s: %w", op, ErrInvalidTransition)
	}
	w.otp = code
	if !otpPattern.MatchString(code) {
		return ErrInvalidOTP
	}

	result, err := w.svc.VerifySignupOTP(ctx, w.details.Email, code)
	if err != nil {
		w.log.Error("otp verification failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := w.session.Login(result.User, result.Token); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	w.user = &result.User
	w.timer.Stop()
	if w.withPlan {
		w.step = StepPlan
	} else {
		w.step = StepDone
	}
	w.log.Info("signup verified",
		slog.String("email", w.details.Email),
		slog.String("next", w.step.String()))
	return nil
}

// Resend повторно запрашивает код подтверждения. Пока окно не истекло,
// вызов не делает ничего и возвращает ErrResendNotReady.
func (w *Workflow) Resend(ctx context.Context) error {
	const op = "signup.Resend"

	if w.step != StepOTP {
		return fmt.Errorf("%s: %w", op, ErrInvalidTransition)
	}
	if !w.resendGuard.Allow() {
		return ErrResendNotReady
	}

	if err := w.svc.SendSignupOTP(ctx, w.details); err != nil {
		w.log.Error("failed to resend signup otp", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	w.armResend()
	return nil
}

// CompletePlanSelection завершает регистрацию после выбора тарифа.
// Вызывается оболочкой, когда воркфлоу подписки дошел до подтверждения
// или пользователь пропустил выбор.
func (w *Workflow) CompletePlanSelection() error {
	if w.step != StepPlan {
		return ErrInvalidTransition
	}
	w.step = StepDone
	return nil
}

// BackToDetails возвращает воркфлоу из шага otp к редактированию формы.
func (w *Workflow) BackToDetails() error {
	if w.step != StepOTP {
		return ErrInvalidTransition
	}
	w.step = StepDetails
	w.otp = ""
	w.timer.Stop()
	return nil
}

// Close освобождает таймер отсчета. Обязателен при отказе от регистрации.
func (w *Workflow) Close() {
	w.timer.Stop()
}

// armResend перезаряжает окно повторной отправки: лимитер выдает следующее
// разрешение не раньше, чем через resendWindow, таймер отсчитывает остаток.
func (w *Workflow) armResend() {
	w.resendGuard = rate.NewLimiter(rate.Every(w.resendWindow), 1)
	w.resendGuard.Allow()
	w.timer.Start(w.resendWindow)
}

func (w *Workflow) validateDetails(details auth.SignupDetails, confirm string) error {
	if details.FullName == "" {
		return &ValidationError{Field: "fullName", Message: "Full name is required"}
	}
	if details.Email == "" {
		return &ValidationError{Field: "email", Message: "Email is required"}
	}
	if details.Password == "" {
		return &ValidationError{Field: "password", Message: "Password is required"}
	}
	if details.Password != confirm {
		return &ValidationError{Field: "confirmPassword", Message: "Passwords do not match"}
	}
	if err := w.validate.Struct(details); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{
				Field:   verrs[0].Field(),
				Message: fieldMessage(verrs[0]),
			}
		}
		return &ValidationError{Field: "", Message: "Invalid form data"}
	}
	return nil
}

func fieldMessage(err validator.FieldError) string {
	switch err.ActualTag() {
	case "email":
		return "Enter a valid email address"
	case "min":
		return "Password must be at least 6 characters"
	case "numeric", "len":
		return "Enter a valid 10-digit mobile number"
	default:
		return fmt.Sprintf("field %s is not valid", err.Field())
	}
}
