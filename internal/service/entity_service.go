package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"comparateur/internal/domain"
	"comparateur/internal/repository"
)

var (
	ErrInvalidInput = domain.ErrInvalidInput
	// ErrConflict запись противоречит уже существующей (email, имя атрибута)
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized нет или неверные учётные данные
	ErrUnauthorized = errors.New("unauthorized")
)

// Validatable сущность каталога, которая умеет себя проверять
type Validatable interface {
	domain.Entity
	Validate() error
}

// EntityService общий CRUD для предложений и акций, база для остальных сервисов
type EntityService[T Validatable] struct {
	repo repository.Repository[T]
}

func NewEntityService[T Validatable](repo repository.Repository[T]) *EntityService[T] {
	return &EntityService[T]{repo: repo}
}

func (s *EntityService[T]) Create(ctx context.Context, v T) (*T, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	cp := v
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (s *EntityService[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	return s.repo.GetByID(ctx, id)
}

// Patch накладывает поля JSON-объекта на сохранённую запись; id не меняется
func (s *EntityService[T]) Patch(ctx context.Context, id int64, patch json.RawMessage) (*T, error) {
	if id <= 0 {
		return nil, ErrInvalidInput
	}
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := mergePatch(*cur, patch)
	if err != nil {
		return nil, err
	}
	if next.EntityID() != id {
		return nil, fmt.Errorf("%w: id is immutable", ErrInvalidInput)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *EntityService[T]) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, id)
}

func (s *EntityService[T]) List(ctx context.Context) ([]T, error) {
	return s.repo.List(ctx, nil)
}

// mergePatch поверхностное слияние: ключи patch заменяют ключи base целиком
func mergePatch[T any](base T, patch json.RawMessage) (T, error) {
	var zero T
	var overlay map[string]json.RawMessage
	if err := json.Unmarshal(patch, &overlay); err != nil || overlay == nil {
		return zero, fmt.Errorf("%w: body must be a json object", ErrInvalidInput)
	}
	raw, err := json.Marshal(base)
	if err != nil {
		return zero, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return zero, err
	}
	for k, v := range overlay {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return zero, err
	}
	var out T
	if err := json.Unmarshal(merged, &out); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return out, nil
}
