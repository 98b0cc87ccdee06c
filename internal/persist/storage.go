package persist

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Storage долговременное key-value хранилище снимков состояния.
// Load возвращает nil, если ключа нет или его нельзя прочитать.
// Save не сообщает об ошибках: запись "выстрелил и забыл", сбои только логируются.
type Storage interface {
	Load(key string) []byte
	Save(key string, blob []byte)
}

// LoadSnapshot декодирует снимок по ключу в v (v передаётся нулевым).
// Отсутствующий или битый снимок даёт false и не считается ошибкой.
func LoadSnapshot(s Storage, key string, v any, logger *slog.Logger) bool {
	blob := s.Load(key)
	if len(blob) == 0 {
		return false
	}
	var raw json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		logger.Warn("persist: corrupt snapshot ignored", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		logger.Warn("persist: snapshot does not match state shape", "key", key, "error", err)
		return false
	}
	return true
}

// SaveSnapshot кодирует v в JSON и пишет в хранилище
func SaveSnapshot(s Storage, key string, v any, logger *slog.Logger) {
	blob, err := json.Marshal(v)
	if err != nil {
		logger.Warn("persist: encode snapshot", "key", key, "error", err)
		return
	}
	s.Save(key, blob)
}

// MemoryStorage хранилище в памяти процесса; переживает пересоздание сторов, но не процесса
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

var _ Storage = (*MemoryStorage)(nil)

func (m *MemoryStorage) Load(key string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil
	}
	// return copy
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

func (m *MemoryStorage) Save(key string, blob []byte) {
	cp := make([]byte, len(blob))
	copy(cp, blob)
	m.mu.Lock()
	m.blobs[key] = cp
	m.mu.Unlock()
}
