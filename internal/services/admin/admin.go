// Package admin реализует клиент администраторской поверхности бэкенда:
// вход администратора, сводка, управление пользователями, каталогом
// тарифов и медиа-материалами.
//
// Пакет работает через собственный экземпляр api.Client с отдельным
// хранилищем сессии: ответ 401 на администраторском эндпоинте очищает
// только администраторскую сессию и никогда не затрагивает клиентскую.
package admin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/url"
	"strconv"

	"github.com/cfaprotection/portal/internal/api"
	"github.com/cfaprotection/portal/internal/models"
)

// LoginResult — ответ бэкенда на вход администратора.
type LoginResult struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	Admin   models.Admin `json:"admin"`
}

// Dashboard — сводные показатели для главной страницы консоли.
type Dashboard struct {
	Stats struct {
		TotalUsers          int `json:"totalUsers"`
		ActiveSubscriptions int `json:"activeSubscriptions"`
		TotalPayments       int `json:"totalPayments"`
		TotalRevenue        int `json:"totalRevenue"`
	} `json:"stats"`
	RecentUsers []struct {
		FullName   string `json:"fullName"`
		Email      string `json:"email"`
		CustomerID string `json:"customerId"`
		CreatedAt  string `json:"createdAt"`
	} `json:"recentUsers"`
	RecentPayments []struct {
		Amount    int    `json:"amount"`
		Status    string `json:"status"`
		CreatedAt string `json:"createdAt"`
	} `json:"recentPayments"`
}

// UserFilter — параметры постраничного списка пользователей.
type UserFilter struct {
	Page   int
	Limit  int
	Search string
	Status models.SubscriptionStatus
}

// UserPage — страница списка пользователей.
type UserPage struct {
	Users []struct {
		ID           string               `json:"_id"`
		FullName     string               `json:"fullName"`
		Email        string               `json:"email"`
		CustomerID   string               `json:"customerId"`
		Subscription *models.Subscription `json:"subscription,omitempty"`
		CreatedAt    string               `json:"createdAt"`
	} `json:"users"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	Total       int `json:"total"`
}

// UserDetail — карточка пользователя с подпиской и историей платежей.
type UserDetail struct {
	User struct {
		ID                string               `json:"_id"`
		FullName          string               `json:"fullName"`
		Email             string               `json:"email"`
		CustomerID        string               `json:"customerId"`
		Subscription      *models.Subscription `json:"subscription,omitempty"`
		AdditionalMembers []models.Member      `json:"additionalMembers,omitempty"`
	} `json:"user"`
	Payments []models.Payment `json:"payments"`
}

// SubscriptionPatch — частичное обновление подписки пользователя.
type SubscriptionPatch struct {
	Status *models.SubscriptionStatus `json:"status,omitempty"`
	PlanID *string                    `json:"planId,omitempty"`
	Amount *int                       `json:"amount,omitempty"`
}

// PlanRequest — тело создания или обновления тарифного плана.
type PlanRequest struct {
	PlanID         string   `json:"planId,omitempty" validate:"required"`
	PlanName       string   `json:"planName" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	Price          int      `json:"price" validate:"gte=0"`
	Duration       int      `json:"duration" validate:"required,gt=0"`
	MaxMembers     int      `json:"maxMembers" validate:"required,gt=0"`
	Features       []string `json:"features"`
	IsSpecialOffer bool     `json:"isSpecialOffer"`
	SpecialPrice   *int     `json:"specialPrice,omitempty"`
}

// MediaRequest — тело создания или обновления медиа-материала.
type MediaRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Type        string   `json:"type" validate:"required"`
	Content     string   `json:"content"`
	Tags        []string `json:"tags,omitempty"`
	IsPublished bool     `json:"isPublished"`
	IsBroadcast bool     `json:"isBroadcast"`
}

// UploadResult — ответ бэкенда на загрузку файла.
type UploadResult struct {
	Message      string `json:"message"`
	FileURL      string `json:"fileUrl"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

// Service предоставляет операции администраторской консоли.
type Service struct {
	client *api.Client
	log    *slog.Logger
}

// New создает новый Service поверх администраторского клиента бэкенда.
func New(client *api.Client, log *slog.Logger) *Service {
	return &Service{client: client, log: log}
}

// Login аутентифицирует администратора по почте и паролю.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	const op = "admin.Login"

	body := map[string]string{"email": email, "password": password}
	var result LoginResult
	if err := s.client.Post(ctx, "/api/admin/login", body, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("admin logged in", slog.String("email", email))
	return &result, nil
}

// Profile возвращает учетную запись аутентифицированного администратора.
func (s *Service) Profile(ctx context.Context) (*models.Admin, error) {
	const op = "admin.Profile"

	var result struct {
		Admin models.Admin `json:"admin"`
	}
	if err := s.client.Get(ctx, "/api/admin/profile", &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result.Admin, nil
}

// Dashboard возвращает сводные показатели консоли.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	const op = "admin.Dashboard"

	var dash Dashboard
	if err := s.client.Get(ctx, "/api/admin/dashboard", &dash); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &dash, nil
}

// ListUsers возвращает страницу пользователей по фильтру.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) (*UserPage, error) {
	const op = "admin.ListUsers"

	params := url.Values{}
	if filter.Page > 0 {
		params.Set("page", strconv.Itoa(filter.Page))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Search != "" {
		params.Set("search", filter.Search)
	}
	if filter.Status != "" {
		params.Set("status", string(filter.Status))
	}

	path := "/api/admin/users"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page UserPage
	if err := s.client.Get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &page, nil
}

// GetUser возвращает карточку пользователя.
func (s *Service) GetUser(ctx context.Context, id string) (*UserDetail, error) {
	const op = "admin.GetUser"

	var detail UserDetail
	if err := s.client.Get(ctx, "/api/admin/users/"+url.PathEscape(id), &detail); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &detail, nil
}

// UpdateUserSubscription меняет подписку пользователя.
func (s *Service) UpdateUserSubscription(ctx context.Context, id string, patch SubscriptionPatch) error {
	const op = "admin.UpdateUserSubscription"

	path := "/api/admin/users/" + url.PathEscape(id) + "/subscription"
	if err := s.client.Put(ctx, path, patch, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user subscription updated", slog.String("user_id", id))
	return nil
}

// ListPlans возвращает полный каталог тарифов, включая неактивные.
func (s *Service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	const op = "admin.ListPlans"

	var plans []models.SubscriptionPlan
	if err := s.client.Get(ctx, "/api/admin/subscriptions", &plans); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// CreatePlan добавляет тарифный план в каталог.
func (s *Service) CreatePlan(ctx context.Context, req PlanRequest) error {
	const op = "admin.CreatePlan"

	if err := s.client.Post(ctx, "/api/admin/subscriptions", req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("plan created", slog.String("plan_id", req.PlanID))
	return nil
}

// UpdatePlan обновляет тарифный план.
func (s *Service) UpdatePlan(ctx context.Context, id string, req PlanRequest) error {
	const op = "admin.UpdatePlan"

	if err := s.client.Put(ctx, "/api/admin/subscriptions/"+url.PathEscape(id), req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateMedia публикует новый медиа-материал.
func (s *Service) CreateMedia(ctx context.Context, req MediaRequest) (*models.Media, error) {
	const op = "admin.CreateMedia"

	var result struct {
		Message string       `json:"message"`
		Media   models.Media `json:"media"`
	}
	if err := s.client.Post(ctx, "/api/media", req, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result.Media, nil
}

// UploadMedia загружает файл материала через multipart-форму с полем "media".
func (s *Service) UploadMedia(ctx context.Context, filename string, content io.Reader) (*UploadResult, error) {
	const op = "admin.UploadMedia"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("media", filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var result UploadResult
	if err := s.client.PostMultipart(ctx, "/api/media/upload", writer.FormDataContentType(), &buf, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("media uploaded", slog.String("filename", filename))
	return &result, nil
}

// UpdateMedia обновляет медиа-материал.
func (s *Service) UpdateMedia(ctx context.Context, id string, req MediaRequest) error {
	const op = "admin.UpdateMedia"

	if err := s.client.Put(ctx, "/api/media/"+url.PathEscape(id), req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteMedia удаляет медиа-материал.
func (s *Service) DeleteMedia(ctx context.Context, id string) error {
	const op = "admin.DeleteMedia"

	if err := s.client.Delete(ctx, "/api/media/"+url.PathEscape(id), nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListAllMedia возвращает страницу всех материалов, включая черновики.
func (s *Service) ListAllMedia(ctx context.Context, mediaType, status string, page, limit int) (*models.MediaPage, error) {
	const op = "admin.ListAllMedia"

	params := url.Values{}
	if mediaType != "" {
		params.Set("type", mediaType)
	}
	if status != "" {
		params.Set("status", status)
	}
	if page > 0 {
		params.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/media/admin/all"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var result models.MediaPage
	if err := s.client.Get(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}
