package service

import (
	"context"
	"encoding/json"
	"time"

	"comparateur/internal/domain"
	"comparateur/internal/repository"
)

// ProductService инкапсулирует бизнес-логику вокруг товаров
type ProductService struct {
	*EntityService[domain.Product]
	products   repository.Repository[domain.Product]
	offers     repository.Repository[domain.Offer]
	promotions repository.Repository[domain.Promotion]
	tx         repository.TxManager
	now        func() time.Time
}

func NewProductService(store *repository.MemoryStore, tx repository.TxManager) *ProductService {
	return &ProductService{
		EntityService: NewEntityService[domain.Product](store.Products),
		products:      store.Products,
		offers:        store.Offers,
		promotions:    store.Promotions,
		tx:            tx,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// ProductPage страница списка товаров в конверте {data,total,page,limit}
type ProductPage struct {
	Data  []domain.Product `json:"data"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

// Create публикует товар от имени владельца
func (s *ProductService) Create(ctx context.Context, ownerID int64, p domain.Product) (*domain.Product, error) {
	p.ID = 0
	p.OwnerID = ownerID
	if p.PublishedAt.IsZero() {
		p.PublishedAt = s.now()
	}
	return s.EntityService.Create(ctx, p)
}

// Patch как у EntityService, но владелец и дата публикации не меняются
func (s *ProductService) Patch(ctx context.Context, id int64, patch json.RawMessage) (*domain.Product, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := mergePatch(*cur, patch)
	if err != nil {
		return nil, err
	}
	next.ID = cur.ID
	next.OwnerID = cur.OwnerID
	next.PublishedAt = cur.PublishedAt
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Delete удаляет товар вместе с его предложениями и акциями
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidInput
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.products.Delete(ctx, id); err != nil {
			return err
		}
		offers, err := s.offers.List(ctx, func(o domain.Offer) bool { return o.ProductID == id })
		if err != nil {
			return err
		}
		for _, o := range offers {
			if err := s.offers.Delete(ctx, o.ID); err != nil {
				return err
			}
		}
		promos, err := s.promotions.List(ctx, func(p domain.Promotion) bool { return p.ProductID == id })
		if err != nil {
			return err
		}
		for _, p := range promos {
			if err := s.promotions.Delete(ctx, p.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListPage фильтрует и режет список; limit <= 0 отдаёт всё
func (s *ProductService) ListPage(ctx context.Context, f repository.ProductFilter, page, limit int) (*ProductPage, error) {
	if page < 1 {
		page = 1
	}
	all, err := s.products.List(ctx, f.Match)
	if err != nil {
		return nil, err
	}
	out := &ProductPage{Data: all, Total: len(all), Page: page, Limit: limit}
	if limit > 0 {
		start := min((page-1)*limit, len(all))
		end := min(start+limit, len(all))
		out.Data = all[start:end]
	}
	return out, nil
}
