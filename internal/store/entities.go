package store

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"comparateur/internal/domain"
	"comparateur/internal/gateway"
	"comparateur/internal/persist"
)

// ключи долговременного хранилища, по одному на стор
const (
	AuthStorageKey      = "auth-storage"
	ProductStorageKey   = "produit-storage"
	CategoryStorageKey  = "categorie-storage"
	OfferStorageKey     = "offre-storage"
	PromotionStorageKey = "promotion-storage"
)

// DefaultOffersListPath путь списка предложений; бэкенд отдаёт его и как /offres
const DefaultOffersListPath = "/api/offres"

type (
	ProductStore   = EntityStore[domain.Product]
	OfferStore     = EntityStore[domain.Offer]
	PromotionStore = EntityStore[domain.Promotion]
)

// NewProductStore товары: GET /produits?page&limit&nom, PATCH для изменений
func NewProductStore(gw gateway.Requester, storage persist.Storage, opts ...Option) *ProductStore {
	return New[domain.Product](Spec{
		Name:          "produit",
		StorageKey:    ProductStorageKey,
		SnapshotField: "produitData",
		ListPath:      "/produits",
		CreatePath:    "/produits",
		ItemPath:      "/produits/%d",
		UpdateMethod:  http.MethodPatch,
		SearchParam:   "nom",
	}, gw, storage, opts...)
}

func NewOfferStore(gw gateway.Requester, storage persist.Storage, listPath string, opts ...Option) *OfferStore {
	if listPath == "" {
		listPath = DefaultOffersListPath
	}
	return New[domain.Offer](Spec{
		Name:          "offre",
		StorageKey:    OfferStorageKey,
		SnapshotField: "offreData",
		ListPath:      listPath,
		CreatePath:    "/offres",
		ItemPath:      "/offres/%d",
		UpdateMethod:  http.MethodPatch,
	}, gw, storage, opts...)
}

func NewPromotionStore(gw gateway.Requester, storage persist.Storage, opts ...Option) *PromotionStore {
	return New[domain.Promotion](Spec{
		Name:          "promotion",
		StorageKey:    PromotionStorageKey,
		SnapshotField: "promotionData",
		ListPath:      "/promotions",
		CreatePath:    "/promotions",
		ItemPath:      "/promotions/%d",
		UpdateMethod:  http.MethodPatch,
	}, gw, storage, opts...)
}

// CategoryStore категории плюс вложенный CRUD атрибутов.
// Уникальность имён атрибутов стор не проверяет: это делает форма
// через domain.CheckAttributeName, окончательно решает сервер.
type CategoryStore struct {
	*EntityStore[domain.Category]
}

func NewCategoryStore(gw gateway.Requester, storage persist.Storage, opts ...Option) *CategoryStore {
	return &CategoryStore{New[domain.Category](Spec{
		Name:          "categorie",
		StorageKey:    CategoryStorageKey,
		SnapshotField: "categorieData",
		ListPath:      "/categorie",
		CreatePath:    "/categorie",
		ItemPath:      "/categorie/%d",
		UpdateMethod:  http.MethodPut,
	}, gw, storage, opts...)}
}

func attributesPath(categoryID int64) string {
	return fmt.Sprintf("/categorie/%d/attribut", categoryID)
}

func attributePath(categoryID, attrID int64) string {
	return fmt.Sprintf("/categorie/%d/attribut/%d", categoryID, attrID)
}

// AddAttribute создаёт атрибут и дописывает его в конец списка атрибутов категории
func (s *CategoryStore) AddAttribute(ctx context.Context, categoryID int64, attr domain.CategoryAttribute) (domain.CategoryAttribute, error) {
	s.begin(OpUpdate)
	defer s.end(OpUpdate)

	raw, err := s.gw.Do(ctx, http.MethodPost, attributesPath(categoryID), attr, true)
	if err != nil {
		return domain.CategoryAttribute{}, err
	}
	created, err := decodeOne[domain.CategoryAttribute](raw)
	if err != nil {
		return domain.CategoryAttribute{}, err
	}
	s.mutate(categoryID, func(c domain.Category) domain.Category {
		c.Attributes = append(slices.Clone(c.Attributes), created)
		return c
	})
	return created, nil
}

// UpdateAttribute меняет атрибут на месте, порядок атрибутов сохраняется
func (s *CategoryStore) UpdateAttribute(ctx context.Context, categoryID, attrID int64, patch any) (domain.CategoryAttribute, error) {
	s.begin(OpUpdate)
	defer s.end(OpUpdate)

	raw, err := s.gw.Do(ctx, http.MethodPut, attributePath(categoryID, attrID), patch, true)
	if err != nil {
		return domain.CategoryAttribute{}, err
	}
	overlay := raw
	if overlay == nil {
		if overlay, err = encode(patch); err != nil {
			return domain.CategoryAttribute{}, err
		}
	}
	if overlay, err = unwrapData(overlay); err != nil {
		return domain.CategoryAttribute{}, err
	}

	var base domain.CategoryAttribute
	if c, ok := s.Get(categoryID); ok {
		if i := attributeIndex(c.Attributes, attrID); i >= 0 {
			base = c.Attributes[i]
		}
	}
	updated, err := shallowMerge(base, overlay, attrID)
	if err != nil {
		return domain.CategoryAttribute{}, err
	}
	s.mutate(categoryID, func(c domain.Category) domain.Category {
		if i := attributeIndex(c.Attributes, attrID); i >= 0 {
			c.Attributes = slices.Clone(c.Attributes)
			c.Attributes[i] = updated
		}
		return c
	})
	return updated, nil
}

// RemoveAttribute удаляет атрибут на сервере, затем из категории
func (s *CategoryStore) RemoveAttribute(ctx context.Context, categoryID, attrID int64) error {
	s.begin(OpUpdate)
	defer s.end(OpUpdate)

	if _, err := s.gw.Do(ctx, http.MethodDelete, attributePath(categoryID, attrID), nil, true); err != nil {
		return err
	}
	s.mutate(categoryID, func(c domain.Category) domain.Category {
		c.Attributes = slices.DeleteFunc(slices.Clone(c.Attributes), func(a domain.CategoryAttribute) bool {
			return a.ID == attrID
		})
		return c
	})
	return nil
}

func attributeIndex(attrs []domain.CategoryAttribute, id int64) int {
	return slices.IndexFunc(attrs, func(a domain.CategoryAttribute) bool { return a.ID == id })
}
