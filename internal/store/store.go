package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"comparateur/internal/domain"
	"comparateur/internal/gateway"
	"comparateur/internal/persist"
)

// ErrDecode успешный ответ сервера не разбирается в сущность
var ErrDecode = errors.New("store: cannot decode response")

// Op вид операции стора
type Op string

const (
	OpFetch  Op = "fetch"
	OpAdd    Op = "add"
	OpUpdate Op = "update"
	OpRemove Op = "remove"
)

// State состояние операции: Idle или Loading, пока есть хотя бы один запрос в полёте
type State string

const (
	StateIdle    State = "Idle"
	StateLoading State = "Loading"
)

// Spec описывает, где сущность живёт в API и в локальном хранилище
type Spec struct {
	Name          string
	StorageKey    string
	SnapshotField string
	ListPath      string
	CreatePath    string
	// ItemPath формат пути одной сущности, например "/produits/%d"
	ItemPath     string
	UpdateMethod string
	// SearchParam имя query-параметра для поиска на сервере, пусто если не поддерживается
	SearchParam string
	// AuthRead список требует токен
	AuthRead bool
}

// ListQuery параметры пагинации и поиска для FetchAll; нулевые поля не отправляются
type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

func (q ListQuery) encode(searchParam string) string {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" && searchParam != "" {
		v.Set(searchParam, q.Search)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type options struct {
	logger   *slog.Logger
	coalesce bool
	now      func() time.Time
}

type Option func(*options)

func newOptions(opts []Option) options {
	o := options{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

// WithClock подменяет часы; нужен AuthStore для проверки срока токена
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// WithCoalescing склеивает одновременные одинаковые FetchAll в один сетевой вызов.
// Все участники получают результат первого вызова, включая его контекст.
func WithCoalescing() Option { return func(o *options) { o.coalesce = true } }

// EntityStore кэш одной коллекции сущностей поверх REST API.
//
// Коллекция меняется только после успешного ответа сервера, оптимистичных вставок нет.
// Операции не сериализуются: кто последним записал коллекцию, тот и прав.
type EntityStore[T domain.Entity] struct {
	spec    Spec
	gw      gateway.Requester
	storage persist.Storage
	opts    options
	group   singleflight.Group

	mu       sync.RWMutex
	items    []T
	version  uint64
	meta     ListMeta
	lastErr  error
	inflight map[Op]int
	subs     map[int]func([]T)
	nextSub  int

	persistMu sync.Mutex
	persisted uint64
}

// New создаёт стор и синхронно поднимает коллекцию из хранилища
func New[T domain.Entity](spec Spec, gw gateway.Requester, storage persist.Storage, opts ...Option) *EntityStore[T] {
	o := newOptions(opts)
	if spec.UpdateMethod == "" {
		spec.UpdateMethod = http.MethodPatch
	}
	s := &EntityStore[T]{
		spec:     spec,
		gw:       gw,
		storage:  storage,
		opts:     o,
		inflight: make(map[Op]int),
		subs:     make(map[int]func([]T)),
	}
	s.hydrate()
	return s
}

func (s *EntityStore[T]) Name() string { return s.spec.Name }

func (s *EntityStore[T]) hydrate() {
	var snap map[string][]T
	if persist.LoadSnapshot(s.storage, s.spec.StorageKey, &snap, s.opts.logger) {
		s.items = snap[s.spec.SnapshotField]
	}
}

// Items снимок коллекции; вызывающий может свободно менять срез
func (s *EntityStore[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Get ищет сущность в кэше по id
func (s *EntityStore[T]) Get(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// Meta метаданные пагинации последнего успешного FetchAll
func (s *EntityStore[T]) Meta() ListMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// LastError причина последнего неудачного FetchAll, nil после успешного
func (s *EntityStore[T]) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *EntityStore[T]) State(op Op) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.inflight[op] > 0 {
		return StateLoading
	}
	return StateIdle
}

func (s *EntityStore[T]) Loading(op Op) bool { return s.State(op) == StateLoading }

// Subscribe вызывает fn после каждой записи коллекции. Возвращает функцию отписки.
func (s *EntityStore[T]) Subscribe(fn func([]T)) (cancel func()) {
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

// FetchAll заменяет коллекцию ответом сервера целиком. Ошибка не возвращается:
// коллекция остаётся прежней, причина пишется в LastError и в лог.
func (s *EntityStore[T]) FetchAll(ctx context.Context, q ListQuery) {
	s.begin(OpFetch)
	defer s.end(OpFetch)

	path := s.spec.ListPath + q.encode(s.spec.SearchParam)
	var (
		res listResult[T]
		err error
	)
	if s.opts.coalesce {
		var v any
		v, err, _ = s.group.Do(path, func() (any, error) { return s.fetch(ctx, path) })
		if err == nil {
			res = v.(listResult[T])
			// v is shared by every caller of this flight
			res.items = slices.Clone(res.items)
		}
	} else {
		res, err = s.fetch(ctx, path)
	}
	if err != nil {
		s.mu.Lock()
		s.lastErr = err
		s.mu.Unlock()
		s.opts.logger.Warn("store: fetch failed", "store", s.spec.Name, "op", OpFetch, "error", err)
		return
	}

	s.mu.Lock()
	s.meta = res.meta
	s.lastErr = nil
	snap, v := s.setLocked(res.items)
	s.mu.Unlock()
	s.commit(snap, v)
}

func (s *EntityStore[T]) fetch(ctx context.Context, path string) (listResult[T], error) {
	raw, err := s.gw.Do(ctx, http.MethodGet, path, nil, s.spec.AuthRead)
	if err != nil {
		return listResult[T]{}, err
	}
	return decodeList[T](raw)
}

// Add создаёт сущность на сервере и дописывает в конец коллекции то, что вернул сервер
func (s *EntityStore[T]) Add(ctx context.Context, entity T) (T, error) {
	s.begin(OpAdd)
	defer s.end(OpAdd)

	var zero T
	raw, err := s.gw.Do(ctx, http.MethodPost, s.spec.CreatePath, entity, true)
	if err != nil {
		return zero, err
	}
	created, err := decodeOne[T](raw)
	if err != nil {
		return zero, err
	}

	s.mu.Lock()
	snap, v := s.setLocked(append(slices.Clone(s.items), created))
	s.mu.Unlock()
	s.commit(snap, v)
	return created, nil
}

// Update отправляет частичное изменение и заменяет сущность на месте:
// старые поля перекрываются полями ответа (или самого patch, если тело ответа пустое).
// id результата всегда равен id.
// Если id нет в кэше, коллекция не меняется, но результат всё равно возвращается.
func (s *EntityStore[T]) Update(ctx context.Context, id int64, patch any) (T, error) {
	s.begin(OpUpdate)
	defer s.end(OpUpdate)

	var zero T
	raw, err := s.gw.Do(ctx, s.spec.UpdateMethod, s.itemPath(id), patch, true)
	if err != nil {
		return zero, err
	}
	overlay := raw
	if overlay == nil {
		if overlay, err = encode(patch); err != nil {
			return zero, err
		}
	}
	if overlay, err = unwrapData(overlay); err != nil {
		return zero, err
	}

	s.mu.Lock()
	i := s.indexOf(id)
	var base T
	if i >= 0 {
		base = s.items[i]
	}
	merged, err := shallowMerge(base, overlay, id)
	if err != nil {
		s.mu.Unlock()
		return zero, err
	}
	if i < 0 {
		s.mu.Unlock()
		return merged, nil
	}
	next := slices.Clone(s.items)
	next[i] = merged
	snap, v := s.setLocked(next)
	s.mu.Unlock()
	s.commit(snap, v)
	return merged, nil
}

// Remove удаляет сущность на сервере, затем из коллекции
func (s *EntityStore[T]) Remove(ctx context.Context, id int64) error {
	s.begin(OpRemove)
	defer s.end(OpRemove)

	if _, err := s.gw.Do(ctx, http.MethodDelete, s.itemPath(id), nil, true); err != nil {
		return err
	}

	s.mu.Lock()
	snap, v := s.setLocked(slices.DeleteFunc(slices.Clone(s.items), func(e T) bool { return e.EntityID() == id }))
	s.mu.Unlock()
	s.commit(snap, v)
	return nil
}

// Clear сбрасывает кэш и сохраняет пустой снимок
func (s *EntityStore[T]) Clear() {
	s.mu.Lock()
	s.meta = ListMeta{}
	s.lastErr = nil
	snap, v := s.setLocked(nil)
	s.mu.Unlock()
	s.commit(snap, v)
}

// mutate применяет fn к сущности с данным id после успешного вложенного вызова API
func (s *EntityStore[T]) mutate(id int64, fn func(T) T) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	next := slices.Clone(s.items)
	next[i] = fn(next[i])
	snap, v := s.setLocked(next)
	s.mu.Unlock()
	s.commit(snap, v)
}

func (s *EntityStore[T]) itemPath(id int64) string {
	return fmt.Sprintf(s.spec.ItemPath, id)
}

// indexOf вызывается под блокировкой
func (s *EntityStore[T]) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(e T) bool { return e.EntityID() == id })
}

func (s *EntityStore[T]) begin(op Op) {
	s.mu.Lock()
	s.inflight[op]++
	s.mu.Unlock()
}

func (s *EntityStore[T]) end(op Op) {
	s.mu.Lock()
	s.inflight[op]--
	s.mu.Unlock()
}

// setLocked присваивает новую коллекцию; вызывается под s.mu
func (s *EntityStore[T]) setLocked(items []T) ([]T, uint64) {
	s.items = items
	s.version++
	return slices.Clone(items), s.version
}

// commit сохраняет снимок (только коллекцию, без флагов загрузки) и оповещает подписчиков.
// Снимок старше уже сохранённого не пишется, чтобы хранилище не отставало от памяти.
func (s *EntityStore[T]) commit(snap []T, version uint64) {
	s.persistMu.Lock()
	if version > s.persisted {
		s.persisted = version
		persist.SaveSnapshot(s.storage, s.spec.StorageKey, map[string][]T{s.spec.SnapshotField: snap}, s.opts.logger)
	}
	s.persistMu.Unlock()

	s.mu.RLock()
	subs := make([]func([]T), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(slices.Clone(snap))
	}
}
