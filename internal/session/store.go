// Package session реализует хранилище аутентификационной сессии клиента.
//
// Хранилище сохраняет пару "токен + принципал" в локальном JSON-файле и
// повторяет жизненный цикл браузерного localStorage: Login записывает,
// Restore читает при старте, Logout очищает. Для клиентской и
// администраторской поверхностей создаются два независимых хранилища с
// разными файлами и ключами, без какого-либо общего состояния.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

// Ключи записи, повторяющие ключи localStorage исходного портала.
const (
	CustomerTokenKey     = "cfa_token"
	CustomerPrincipalKey = "cfa_user"
	AdminTokenKey        = "cfa_admin_token"
	AdminPrincipalKey    = "cfa_admin"
)

// ErrNotAuthenticated возвращается при запросе принципала из пустой сессии.
var ErrNotAuthenticated = errors.New("session: not authenticated")

// Store хранит сессию одной поверхности (клиент или администратор).
//
// Срок жизни токена на клиенте не вычисляется: истечение обнаруживается
// реактивно, когда бэкенд отвечает 401, после чего вызывается Logout.
type Store struct {
	mu           sync.Mutex
	path         string // Файл с сериализованной сессией
	tokenKey     string // Ключ токена в файле
	principalKey string // Ключ принципала в файле

	token     string
	principal json.RawMessage
	onLogout  func()
}

// New создает хранилище с произвольными ключами записи.
func New(path, tokenKey, principalKey string) *Store {
	return &Store{
		path:         path,
		tokenKey:     tokenKey,
		principalKey: principalKey,
	}
}

// NewCustomer создает хранилище клиентской сессии с ключами cfa_token/cfa_user.
func NewCustomer(path string) *Store {
	return New(path, CustomerTokenKey, CustomerPrincipalKey)
}

// NewAdmin создает хранилище администраторской сессии
// с ключами cfa_admin_token/cfa_admin.
func NewAdmin(path string) *Store {
	return New(path, AdminTokenKey, AdminPrincipalKey)
}

// SetOnLogout задает обработчик, вызываемый после очистки сессии.
// Обычно это редирект на страницу входа соответствующей поверхности.
func (s *Store) SetOnLogout(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = fn
}

// Login сериализует принципала, сохраняет сессию на диск и в память.
func (s *Store) Login(principal any, token string) error {
	const op = "session.Login"

	raw, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(token, raw); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.token = token
	s.principal = raw
	return nil
}

// Logout очищает сессию в памяти и на диске и вызывает onLogout.
func (s *Store) Logout() error {
	const op = "session.Logout"

	s.mu.Lock()
	s.token = ""
	s.principal = nil
	err := os.Remove(s.path)
	hook := s.onLogout
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Restore читает сохраненную сессию при старте приложения.
//
// Поврежденные данные — нечитаемый файл, невалидный JSON принципала или
// токен, не являющийся структурно корректным JWT — молча отбрасываются
// вместе со всей сессией. Срок действия токена при этом не проверяется.
func (s *Store) Restore() error {
	const op = "session.Restore"

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		s.discard()
		return nil
	}

	var token string
	if err := json.Unmarshal(entries[s.tokenKey], &token); err != nil || token == "" {
		s.discard()
		return nil
	}
	if _, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{}); err != nil {
		s.discard()
		return nil
	}

	principal, ok := entries[s.principalKey]
	if !ok || !json.Valid(principal) {
		s.discard()
		return nil
	}

	s.token = token
	s.principal = principal
	return nil
}

// Token возвращает текущий токен или пустую строку.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// IsAuthenticated сообщает, установлена ли сессия.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.principal != nil
}

// Principal десериализует сохраненного принципала в out.
func (s *Store) Principal(out any) error {
	const op = "session.Principal"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token == "" || s.principal == nil {
		return fmt.Errorf("%s: %w", op, ErrNotAuthenticated)
	}
	if err := json.Unmarshal(s.principal, out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// persist атомарно записывает файл сессии: сначала временный файл, потом rename.
func (s *Store) persist(token string, principal json.RawMessage) error {
	entries := map[string]json.RawMessage{}
	rawToken, err := json.Marshal(token)
	if err != nil {
		return err
	}
	entries[s.tokenKey] = rawToken
	entries[s.principalKey] = principal

	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) discard() {
	s.token = ""
	s.principal = nil
	os.Remove(s.path)
}
