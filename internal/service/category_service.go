package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"comparateur/internal/domain"
	"comparateur/internal/repository"
)

// CategoryService категории и их атрибуты. Изменения атрибутов идут
// внутри транзакции, чтобы проверка имени и запись были атомарны.
type CategoryService struct {
	*EntityService[domain.Category]
	repo repository.Repository[domain.Category]
	tx   repository.TxManager
}

func NewCategoryService(repo repository.Repository[domain.Category], tx repository.TxManager) *CategoryService {
	return &CategoryService{EntityService: NewEntityService(repo), repo: repo, tx: tx}
}

// Create назначает атрибутам id по порядку
func (s *CategoryService) Create(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c.ID = 0
	c.Attributes = slices.Clone(c.Attributes)
	for i := range c.Attributes {
		c.Attributes[i].ID = int64(i + 1)
	}
	created, err := s.EntityService.Create(ctx, c)
	return created, asConflict(err)
}

// Update PUT /categorie/:id: поля тела заменяют поля категории. Атрибуты
// меняются только через вложенные маршруты, поэтому из тела игнорируются.
func (s *CategoryService) Update(ctx context.Context, id int64, body json.RawMessage) (*domain.Category, error) {
	var out *domain.Category
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		cur, err := s.GetByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := mergePatch(*cur, body)
		if err != nil {
			return err
		}
		next.ID = cur.ID
		next.Attributes = cur.Attributes
		if err := next.Validate(); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, &next); err != nil {
			return err
		}
		out = &next
		return nil
	})
	return out, err
}

// AddAttribute дописывает атрибут в конец; дубль имени даёт ErrConflict
func (s *CategoryService) AddAttribute(ctx context.Context, categoryID int64, attr domain.CategoryAttribute) (*domain.CategoryAttribute, error) {
	if err := attr.Validate(); err != nil {
		return nil, err
	}
	var out domain.CategoryAttribute
	err := s.modify(ctx, categoryID, func(c *domain.Category) error {
		if err := domain.CheckAttributeName(c.Attributes, attr.Name, 0); err != nil {
			return err
		}
		var maxID int64
		for _, a := range c.Attributes {
			maxID = max(maxID, a.ID)
		}
		attr.ID = maxID + 1
		c.Attributes = append(c.Attributes, attr)
		out = attr
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CategoryService) UpdateAttribute(ctx context.Context, categoryID, attrID int64, patch json.RawMessage) (*domain.CategoryAttribute, error) {
	var out domain.CategoryAttribute
	err := s.modify(ctx, categoryID, func(c *domain.Category) error {
		i := slices.IndexFunc(c.Attributes, func(a domain.CategoryAttribute) bool { return a.ID == attrID })
		if i < 0 {
			return repository.ErrNotFound
		}
		next, err := mergePatch(c.Attributes[i], patch)
		if err != nil {
			return err
		}
		next.ID = attrID
		if err := next.Validate(); err != nil {
			return err
		}
		if err := domain.CheckAttributeName(c.Attributes, next.Name, attrID); err != nil {
			return err
		}
		c.Attributes[i] = next
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *CategoryService) RemoveAttribute(ctx context.Context, categoryID, attrID int64) error {
	return s.modify(ctx, categoryID, func(c *domain.Category) error {
		n := len(c.Attributes)
		c.Attributes = slices.DeleteFunc(c.Attributes, func(a domain.CategoryAttribute) bool { return a.ID == attrID })
		if len(c.Attributes) == n {
			return repository.ErrNotFound
		}
		return nil
	})
}

func (s *CategoryService) modify(ctx context.Context, categoryID int64, fn func(*domain.Category) error) error {
	if categoryID <= 0 {
		return ErrInvalidInput
	}
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, categoryID)
		if err != nil {
			return err
		}
		c.Attributes = slices.Clone(c.Attributes)
		if err := fn(c); err != nil {
			return err
		}
		return s.repo.Update(ctx, c)
	})
	return asConflict(err)
}

func asConflict(err error) error {
	if errors.Is(err, domain.ErrDuplicateAttribute) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
