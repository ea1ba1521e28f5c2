// Package media реализует клиент публичных медиа-эндпоинтов портала.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/cfaprotection/portal/internal/api"
	"github.com/cfaprotection/portal/internal/models"
)

// Filter задает параметры выборки списка материалов.
type Filter struct {
	Type  string // Тип материала, пустая строка — без фильтра
	Page  int
	Limit int
}

// Service предоставляет операции чтения медиа-материалов.
type Service struct {
	client *api.Client
	log    *slog.Logger
}

// New создает новый Service поверх клиента бэкенда.
func New(client *api.Client, log *slog.Logger) *Service {
	return &Service{client: client, log: log}
}

// List возвращает страницу опубликованных материалов по фильтру.
func (s *Service) List(ctx context.Context, filter Filter) (*models.MediaPage, error) {
	const op = "media.List"

	params := url.Values{}
	if filter.Type != "" {
		params.Set("type", filter.Type)
	}
	if filter.Page > 0 {
		params.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}

	path := "/api/media"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page models.MediaPage
	if err := s.client.Get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &page, nil
}

// Get возвращает один материал по идентификатору.
func (s *Service) Get(ctx context.Context, id string) (*models.Media, error) {
	const op = "media.Get"

	var item models.Media
	if err := s.client.Get(ctx, "/api/media/"+url.PathEscape(id), &item); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &item, nil
}

// BroadcastUpdates возвращает материалы, помеченные для рассылки обновлений.
func (s *Service) BroadcastUpdates(ctx context.Context) ([]models.Media, error) {
	const op = "media.BroadcastUpdates"

	var items []models.Media
	if err := s.client.Get(ctx, "/api/media/broadcast/updates", &items); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}
