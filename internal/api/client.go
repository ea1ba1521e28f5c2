// Package api реализует HTTP-клиент REST-бэкенда портала.
//
// Клиент добавляет bearer-токен активной сессии к каждому запросу и
// глобально перехватывает ответы 401: сессия соответствующей поверхности
// очищается через хук OnUnauthorized, вызывающая сторона получает
// ErrUnauthorized. Клиентская и администраторская поверхности используют
// два независимых экземпляра клиента с разными хранилищами сессий.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cfaprotection/portal/internal/lib/sl"
)

// TokenSource выдает bearer-токен текущей сессии.
// Пустая строка означает неаутентифицированный запрос.
type TokenSource interface {
	Token() string
}

// Client обертка над http.Client с базовым URL и токеном сессии.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized func()
	log            *slog.Logger
}

// New создает клиент бэкенда. tokens может быть nil для поверхностей,
// не требующих аутентификации.
func New(baseURL string, timeout time.Duration, tokens TokenSource, log *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        log,
	}
}

// SetOnUnauthorized задает обработчик ответа 401 — очистку сессии
// и редирект на страницу входа своей поверхности.
func (c *Client) SetOnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// Get выполняет GET-запрос и декодирует ответ в out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post выполняет POST-запрос с JSON-телом body и декодирует ответ в out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put выполняет PUT-запрос с JSON-телом body и декодирует ответ в out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete выполняет DELETE-запрос и декодирует ответ в out.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// PostMultipart выполняет POST-запрос с готовым multipart-телом,
// используется для загрузки медиафайлов.
func (c *Client) PostMultipart(ctx context.Context, path, contentType string, body io.Reader, out any) error {
	const op = "api.PostMultipart"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.send(op, req, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	op := "api." + method

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(op, req, out)
}

func (c *Client) send(op string, req *http.Request, out any) error {
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("request failed",
			slog.String("op", op),
			slog.String("path", req.URL.Path),
			sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.log.Warn("unauthorized response, clearing session",
			slog.String("path", req.URL.Path))
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return fmt.Errorf("%s: %w", op, newError(resp))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", op, newError(resp))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
