package repository

import (
	"context"
	"errors"
	"strings"

	"comparateur/internal/domain"
)

// ErrNotFound возвращается, когда сущность не найдена
var ErrNotFound = errors.New("not found")

// ProductFilter параметры фильтрации списка товаров
type ProductFilter struct {
	NameSubstring string
	CategoryID    int64
	OwnerID       int64
}

// Match применяет фильтр к товару; нулевые поля не ограничивают выборку
func (f ProductFilter) Match(p domain.Product) bool {
	if !containsIgnoreCase(p.Name, f.NameSubstring) {
		return false
	}
	if f.CategoryID != 0 && p.CategoryID != f.CategoryID {
		return false
	}
	if f.OwnerID != 0 && p.OwnerID != f.OwnerID {
		return false
	}
	return true
}

// Repository интерфейс in-memory таблицы сущностей
type Repository[T domain.Entity] interface {
	Create(ctx context.Context, v *T) error
	GetByID(ctx context.Context, id int64) (*T, error)
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id int64) error
	// List отдаёт записи в порядке вставки; match == nil значит "все"
	List(ctx context.Context, match func(T) bool) ([]T, error)
}

// UserRecord пользователь вместе с хэшем пароля; хэш наружу не сериализуется
type UserRecord struct {
	domain.User
	PasswordHash string `json:"-"`
}

// TxManager абстракция транзакции. Для in-memory это глобальная блокировка записи.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// helper: case-insensitive contains
func containsIgnoreCase(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
