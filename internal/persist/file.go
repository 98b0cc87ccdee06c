package persist

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStorage хранит каждый ключ отдельным файлом <dir>/<key>.json
type FileStorage struct {
	dir    string
	logger *slog.Logger
	mu     sync.Mutex
}

func NewFileStorage(dir string, logger *slog.Logger) *FileStorage {
	return &FileStorage{dir: dir, logger: logger}
}

var _ Storage = (*FileStorage)(nil)

func (f *FileStorage) path(key string) string {
	// keys are fixed store names, but keep them inside dir regardless
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key)
	return filepath.Join(f.dir, safe+".json")
}

func (f *FileStorage) Load(key string) []byte {
	b, err := os.ReadFile(f.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("persist: read snapshot", "key", key, "error", err)
		}
		return nil
	}
	return b
}

// Save пишет во временный файл и переименовывает, чтобы читатель не увидел половину записи
func (f *FileStorage) Save(key string, blob []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		f.logger.Warn("persist: create dir", "dir", f.dir, "error", err)
		return
	}
	tmp, err := os.CreateTemp(f.dir, ".snapshot-*")
	if err != nil {
		f.logger.Warn("persist: create temp file", "key", key, "error", err)
		return
	}
	name := tmp.Name()
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(name)
		f.logger.Warn("persist: write snapshot", "key", key, "error", err)
		return
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		f.logger.Warn("persist: close snapshot", "key", key, "error", err)
		return
	}
	if err := os.Rename(name, f.path(key)); err != nil {
		os.Remove(name)
		f.logger.Warn("persist: rename snapshot", "key", key, "error", err)
	}
}
