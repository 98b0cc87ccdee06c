package repository

import (
	"context"
	"sync"

	"comparateur/internal/domain"
)

// MemoryStore объединённое in-memory хранилище: все таблицы под одной блокировкой
type MemoryStore struct {
	mu sync.RWMutex

	Products   *MemoryTable[domain.Product]
	Categories *MemoryTable[domain.Category]
	Offers     *MemoryTable[domain.Offer]
	Promotions *MemoryTable[domain.Promotion]
	Users      *MemoryTable[UserRecord]
}

func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{}
	m.Products = newTable(m, func(p *domain.Product, id int64) { p.ID = id })
	m.Categories = newTable(m, func(c *domain.Category, id int64) { c.ID = id })
	m.Offers = newTable(m, func(o *domain.Offer, id int64) { o.ID = id })
	m.Promotions = newTable(m, func(p *domain.Promotion, id int64) { p.ID = id })
	m.Users = newTable(m, func(u *UserRecord, id int64) { u.ID = id })
	return m
}

// transaction-aware locking helpers
type txKey struct{}

func isTx(ctx context.Context) bool {
	v := ctx.Value(txKey{})
	if v == nil {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

func (m *MemoryStore) rlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RLock()
	}
}
func (m *MemoryStore) runlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.RUnlock()
	}
}
func (m *MemoryStore) wlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Lock()
	}
}
func (m *MemoryStore) wunlock(ctx context.Context) {
	if !isTx(ctx) {
		m.mu.Unlock()
	}
}

// MemoryTable таблица одной сущности с генератором ID и порядком вставки
type MemoryTable[T domain.Entity] struct {
	store  *MemoryStore
	setID  func(*T, int64)
	nextID int64
	order  []int64
	byID   map[int64]T
}

func newTable[T domain.Entity](store *MemoryStore, setID func(*T, int64)) *MemoryTable[T] {
	return &MemoryTable[T]{store: store, setID: setID, nextID: 1, byID: make(map[int64]T)}
}

// Ensure interfaces
var (
	_ Repository[domain.Product] = (*MemoryTable[domain.Product])(nil)
	_ Repository[UserRecord]     = (*MemoryTable[UserRecord])(nil)
)

func (t *MemoryTable[T]) Create(ctx context.Context, v *T) error {
	t.store.wlock(ctx)
	defer t.store.wunlock(ctx)
	id := t.nextID
	t.nextID++
	t.setID(v, id)
	t.byID[id] = *v
	t.order = append(t.order, id)
	return nil
}

func (t *MemoryTable[T]) GetByID(ctx context.Context, id int64) (*T, error) {
	t.store.rlock(ctx)
	defer t.store.runlock(ctx)
	v, ok := t.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return copy
	cp := v
	return &cp, nil
}

func (t *MemoryTable[T]) Update(ctx context.Context, v *T) error {
	t.store.wlock(ctx)
	defer t.store.wunlock(ctx)
	id := (*v).EntityID()
	if _, ok := t.byID[id]; !ok {
		return ErrNotFound
	}
	t.byID[id] = *v
	return nil
}

func (t *MemoryTable[T]) Delete(ctx context.Context, id int64) error {
	t.store.wlock(ctx)
	defer t.store.wunlock(ctx)
	if _, ok := t.byID[id]; !ok {
		return ErrNotFound
	}
	delete(t.byID, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}

func (t *MemoryTable[T]) List(ctx context.Context, match func(T) bool) ([]T, error) {
	t.store.rlock(ctx)
	defer t.store.runlock(ctx)
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		v := t.byID[id]
		if match != nil && !match(v) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Tx manager using write lock to emulate transaction boundary
type MemoryTx struct{ store *MemoryStore }

func NewMemoryTx(store *MemoryStore) *MemoryTx { return &MemoryTx{store: store} }

func (tx *MemoryTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if isTx(ctx) {
		return fn(ctx)
	}
	// Для in-memory используем блокировку записи и помечаем контекст, чтобы таблицы пропускали внутренние локи
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	ctx = context.WithValue(ctx, txKey{}, true)
	return fn(ctx)
}
