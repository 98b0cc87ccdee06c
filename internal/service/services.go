package service

import (
	"time"

	"comparateur/internal/domain"
	"comparateur/internal/repository"
)

// Services набор сервисов мок-бэкенда над одним MemoryStore
type Services struct {
	Accounts   *AccountService
	Products   *ProductService
	Categories *CategoryService
	Offers     *EntityService[domain.Offer]
	Promotions *EntityService[domain.Promotion]
}

func NewServices(store *repository.MemoryStore, secret string, tokenTTL time.Duration) *Services {
	tx := repository.NewMemoryTx(store)
	return &Services{
		Accounts:   NewAccountService(store.Users, tx, secret, tokenTTL),
		Products:   NewProductService(store, tx),
		Categories: NewCategoryService(store.Categories, tx),
		Offers:     NewEntityService[domain.Offer](store.Offers),
		Promotions: NewEntityService[domain.Promotion](store.Promotions),
	}
}
