package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"comparateur/internal/config"
	"comparateur/internal/gateway"
	"comparateur/internal/persist"
	"comparateur/internal/store"
)

// App корень композиции клиента: хранилище снимков, шлюз и пять сторов
type App struct {
	Storage persist.Storage
	Gateway *gateway.Client

	Auth       *store.AuthStore
	Products   *store.ProductStore
	Categories *store.CategoryStore
	Offers     *store.OfferStore
	Promotions *store.PromotionStore

	logger *slog.Logger
	closer func() error
}

// New собирает клиент по конфигурации. Недоступный Redis не роняет запуск:
// снимки переезжают в память процесса.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	a := &App{logger: logger, closer: func() error { return nil }}

	switch cfg.StorageDriver {
	case config.StorageRedis:
		rs, err := persist.NewRedisStorage(cfg.RedisURL, cfg.RedisNamespace, logger)
		if err != nil {
			logger.Warn("redis unavailable, snapshots kept in memory", "error", err)
			a.Storage = persist.NewMemoryStorage()
			break
		}
		a.Storage = rs
		a.closer = rs.Close
	case config.StorageMemory:
		a.Storage = persist.NewMemoryStorage()
	default:
		a.Storage = persist.NewFileStorage(cfg.StorageDir, logger)
	}

	// токен читается из AuthStore в момент запроса
	gwOpts := []gateway.Option{
		gateway.WithLogger(logger),
		gateway.WithTimeout(cfg.HTTPTimeout),
		gateway.WithTokenSource(gateway.TokenFunc(func() string { return a.Auth.Token() })),
	}
	if cfg.Tracing {
		gwOpts = append(gwOpts, gateway.WithTracing())
	}
	a.Gateway = gateway.New(cfg.APIBaseURL, gwOpts...)

	opts := []store.Option{store.WithLogger(logger)}
	if cfg.CoalesceFetches {
		opts = append(opts, store.WithCoalescing())
	}
	a.Auth = store.NewAuthStore(a.Gateway, a.Storage, opts...)
	a.Products = store.NewProductStore(a.Gateway, a.Storage, opts...)
	a.Categories = store.NewCategoryStore(a.Gateway, a.Storage, opts...)
	a.Offers = store.NewOfferStore(a.Gateway, a.Storage, cfg.OffersListPath, opts...)
	a.Promotions = store.NewPromotionStore(a.Gateway, a.Storage, opts...)
	return a, nil
}

// Refresh загружает все коллекции параллельно. Ошибки чтения сторы
// проглатывают сами; здесь они лишь собираются для вызывающего.
func (a *App) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { a.Products.FetchAll(ctx, store.ListQuery{}); return nil })
	g.Go(func() error { a.Categories.FetchAll(ctx, store.ListQuery{}); return nil })
	g.Go(func() error { a.Offers.FetchAll(ctx, store.ListQuery{}); return nil })
	g.Go(func() error { a.Promotions.FetchAll(ctx, store.ListQuery{}); return nil })
	_ = g.Wait()

	var errs []error
	for _, r := range []struct {
		name string
		err  error
	}{
		{a.Products.Name(), a.Products.LastError()},
		{a.Categories.Name(), a.Categories.LastError()},
		{a.Offers.Name(), a.Offers.LastError()},
		{a.Promotions.Name(), a.Promotions.LastError()},
	} {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.name, r.err))
		}
	}
	return errors.Join(errs...)
}

// Logout завершает сессию и сбрасывает кэши, принадлежащие продавцу
func (a *App) Logout() {
	a.Auth.Logout()
	a.Offers.Clear()
	a.Promotions.Clear()
	a.logger.Info("session closed")
}

func (a *App) Close() error {
	return a.closer()
}
