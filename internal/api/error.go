package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// ErrUnauthorized сигнализирует об ответе 401; для такого ответа
// клиент уже успел очистить сессию своей поверхности.
var ErrUnauthorized = errors.New("unauthorized")

// Error — ошибка уровня API с HTTP-статусом и сообщением из тела ответа.
type Error struct {
	Status  int    // HTTP-статус ответа
	Message string // Поле message из тела, либо стандартный текст статуса
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap отдает ErrUnauthorized для ответов 401, чтобы вызывающие могли
// различать принудительный разлогин и обычные ошибки через errors.Is.
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// newError извлекает сообщение из JSON-тела ответа; при невозможности
// прочитать тело подставляется текст HTTP-статуса.
func newError(resp *http.Response) *Error {
	apiErr := &Error{
		Status:  resp.StatusCode,
		Message: http.StatusText(resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	}
	return apiErr
}

// Message возвращает человекочитаемое сообщение ошибки API либо fallback.
// Используется обработчиками форм для показа текста рядом с полем.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
