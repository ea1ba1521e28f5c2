// Package auth реализует клиент аутентификационных эндпоинтов бэкенда:
// выдача и проверка OTP при регистрации, вход, восстановление пароля
// и получение профиля.
package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cfaprotection/portal/internal/api"
	"github.com/cfaprotection/portal/internal/models"
)

// SignupDetails — данные формы регистрации, отправляемые вместе с запросом OTP.
type SignupDetails struct {
	FullName     string `json:"fullName" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobileNumber,omitempty" validate:"omitempty,numeric,len=10"`
	Password     string `json:"password" validate:"required,min=6"`
}

// LoginRequest — учетные данные для входа: почта или номер телефона плюс пароль.
type LoginRequest struct {
	Email        string `json:"email,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty"`
	Password     string `json:"password"`
}

// ResetPasswordRequest — данные для смены пароля по коду из письма.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// AuthResult — ответ бэкенда на успешную проверку OTP или вход.
type AuthResult struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    models.User `json:"user"`
}

// Service предоставляет операции аутентификации клиентской поверхности.
type Service struct {
	client *api.Client
	log    *slog.Logger
}

// New создает новый Service поверх клиента бэкенда.
func New(client *api.Client, log *slog.Logger) *Service {
	return &Service{client: client, log: log}
}

// SendSignupOTP запрашивает отправку кода подтверждения на почту из деталей регистрации.
func (s *Service) SendSignupOTP(ctx context.Context, details SignupDetails) error {
	const op = "auth.SendSignupOTP"

	if err := s.client.Post(ctx, "/api/auth/send-otp", details, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("signup otp requested", slog.String("email", details.Email))
	return nil
}

// VerifySignupOTP обменивает код подтверждения на токен сессии и объект пользователя.
func (s *Service) VerifySignupOTP(ctx context.Context, email, otp string) (*AuthResult, error) {
	const op = "auth.VerifySignupOTP"

	body := map[string]string{"email": email, "otp": otp}
	var result AuthResult
	if err := s.client.Post(ctx, "/api/auth/verify-otp", body, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("signup otp verified", slog.String("email", email))
	return &result, nil
}

// Login аутентифицирует пользователя по почте или телефону и паролю.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	const op = "auth.Login"

	var result AuthResult
	if err := s.client.Post(ctx, "/api/auth/login", req, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ForgotPassword запрашивает код восстановления пароля.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	const op = "auth.ForgotPassword"

	body := map[string]string{"email": email}
	if err := s.client.Post(ctx, "/api/auth/forgot-password", body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по коду восстановления.
func (s *Service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	const op = "auth.ResetPassword"

	if err := s.client.Post(ctx, "/api/auth/reset-password", req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Profile возвращает профиль аутентифицированного пользователя.
func (s *Service) Profile(ctx context.Context) (*models.User, error) {
	const op = "auth.Profile"

	var user models.User
	if err := s.client.Get(ctx, "/api/auth/profile", &user); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user, nil
}
