package service

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"comparateur/internal/domain"
	"comparateur/internal/repository"
)

// AccountService регистрация и вход продавцов, выдача HS256 JWT
type AccountService struct {
	users  repository.Repository[repository.UserRecord]
	tx     repository.TxManager
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAccountService(users repository.Repository[repository.UserRecord], tx repository.TxManager, secret string, ttl time.Duration) *AccountService {
	return &AccountService{
		users:  users,
		tx:     tx,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Register создаёт пользователя; занятый email даёт ErrConflict
func (s *AccountService) Register(ctx context.Context, name, email, password, role string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || password == "" {
		return nil, fmt.Errorf("%w: name and password are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if role == "" {
		role = "vendeur"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	rec := repository.UserRecord{
		User:         domain.User{Name: name, Email: email, Role: role},
		PasswordHash: string(hash),
	}
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.findByEmail(ctx, email); err == nil {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return s.users.Create(ctx, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec.User, nil
}

// Login проверяет пароль и выдаёт токен
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	rec, err := s.findByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrUnauthorized
	}
	tok, err := s.sign(rec.User)
	if err != nil {
		return "", nil, err
	}
	return tok, &rec.User, nil
}

// Verify разбирает bearer-токен и возвращает id пользователя
func (s *AccountService) Verify(token string) (int64, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, ErrUnauthorized
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrUnauthorized
	}
	return id, nil
}

func (s *AccountService) sign(u domain.User) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(u.ID, 10),
		"email": u.Email,
		"role":  u.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AccountService) findByEmail(ctx context.Context, email string) (*repository.UserRecord, error) {
	list, err := s.users.List(ctx, func(u repository.UserRecord) bool { return u.Email == email })
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}
