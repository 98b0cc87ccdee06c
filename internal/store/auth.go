package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"comparateur/internal/domain"
	"comparateur/internal/gateway"
	"comparateur/internal/persist"
)

// RegisterRequest тело POST /utilisateurs
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// AuthStore сессия клиента. В хранилище уходят только поля сессии,
// флаг загрузки и последняя ошибка живут лишь в памяти.
type AuthStore struct {
	gw      gateway.Requester
	storage persist.Storage
	opts    options

	mu      sync.RWMutex
	session domain.Session
	lastErr error
	loading int
	subs    map[int]func(domain.Session)
	nextSub int
}

var _ gateway.TokenSource = (*AuthStore)(nil)

func NewAuthStore(gw gateway.Requester, storage persist.Storage, opts ...Option) *AuthStore {
	s := &AuthStore{
		gw:      gw,
		storage: storage,
		opts:    newOptions(opts),
		subs:    make(map[int]func(domain.Session)),
	}
	var snap domain.Session
	if persist.LoadSnapshot(storage, AuthStorageKey, &snap, s.opts.logger) {
		s.session = snap
	}
	return s
}

func (s *AuthStore) Session() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Token текущий bearer-токен. JWT с истёкшим exp считается отсутствующим,
// непрозрачные (не JWT) токены отдаются как есть.
func (s *AuthStore) Token() string {
	s.mu.RLock()
	tok := s.session.Token
	s.mu.RUnlock()
	if tok == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return tok
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return tok
	}
	if !s.opts.now().Before(exp.Time) {
		s.opts.logger.Debug("store: session token expired", "expired_at", exp.Time)
		return ""
	}
	return tok
}

func (s *AuthStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *AuthStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading > 0
}

func (s *AuthStore) Subscribe(fn func(domain.Session)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Login POST /auth/login. При ошибке сессия не меняется, ошибка возвращается вызывающему.
func (s *AuthStore) Login(ctx context.Context, email, password string) (domain.Session, error) {
	s.setLoading(1)
	defer s.setLoading(-1)

	raw, err := s.gw.Do(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, false)
	if err != nil {
		s.fail(err)
		return domain.Session{}, err
	}
	var resp loginResponse
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Token == "" {
		err = fmt.Errorf("%w: login response without token", ErrDecode)
		s.fail(err)
		return domain.Session{}, err
	}
	username := email
	if resp.User != nil && resp.User.Name != "" {
		username = resp.User.Name
	}
	next := domain.Session{IsAuthenticated: true, User: resp.User, Username: username, Token: resp.Token}
	s.set(next)
	return next, nil
}

// Register POST /utilisateurs; сессию не трогает, возвращает сообщение сервера
func (s *AuthStore) Register(ctx context.Context, req RegisterRequest) (string, error) {
	s.setLoading(1)
	defer s.setLoading(-1)

	raw, err := s.gw.Do(ctx, http.MethodPost, "/utilisateurs", req, false)
	if err != nil {
		s.fail(err)
		return "", err
	}
	var resp struct {
		Message string `json:"message"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &resp); err != nil {
			err = fmt.Errorf("%w: %v", ErrDecode, err)
			s.fail(err)
			return "", err
		}
	}
	s.mu.Lock()
	s.lastErr = nil
	s.mu.Unlock()
	return resp.Message, nil
}

// Logout локально забывает сессию; сервер не вызывается
func (s *AuthStore) Logout() {
	s.set(domain.Session{})
}

func (s *AuthStore) setLoading(delta int) {
	s.mu.Lock()
	s.loading += delta
	s.mu.Unlock()
}

func (s *AuthStore) fail(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *AuthStore) set(next domain.Session) {
	s.mu.Lock()
	s.session = next
	s.lastErr = nil
	subs := make([]func(domain.Session), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	persist.SaveSnapshot(s.storage, AuthStorageKey, next, s.opts.logger)
	for _, fn := range subs {
		fn(next)
	}
}
