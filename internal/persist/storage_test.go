package persist

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Items []string `json:"items"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *RedisStorage) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisStorageFromClient(client, "test", quietLogger())
}

func storages(t *testing.T) map[string]Storage {
	t.Helper()
	_, rs := setupRedis(t)
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"file":   NewFileStorage(t.TempDir(), quietLogger()),
		"redis":  rs,
	}
}

func TestStorage_RoundTrip(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			log := quietLogger()
			SaveSnapshot(s, "produit-storage", snapshot{Items: []string{"b", "a", "c"}}, log)

			var got snapshot
			require.True(t, LoadSnapshot(s, "produit-storage", &got, log))
			assert.Equal(t, []string{"b", "a", "c"}, got.Items)
		})
	}
}

func TestStorage_MissingKey(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			var got snapshot
			assert.False(t, LoadSnapshot(s, "absent", &got, quietLogger()))
			assert.Nil(t, got.Items)
			assert.Nil(t, s.Load("absent"))
		})
	}
}

func TestStorage_CorruptSnapshotIsEmpty(t *testing.T) {
	for name, s := range storages(t) {
		t.Run(name, func(t *testing.T) {
			s.Save("offre-storage", []byte(`{"items": [1, 2`))
			var got snapshot
			assert.False(t, LoadSnapshot(s, "offre-storage", &got, quietLogger()))
			assert.Nil(t, got.Items)

			s.Save("offre-storage", []byte(`{"items": "not-a-list"}`))
			assert.False(t, LoadSnapshot(s, "offre-storage", &snapshot{}, quietLogger()))
		})
	}
}

func TestFileStorage_Layout(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStorage(filepath.Join(dir, "nested"), quietLogger())
	fs.Save("auth-storage", []byte(`{"isAuthenticated":false}`))

	b, err := os.ReadFile(filepath.Join(dir, "nested", "auth-storage.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"isAuthenticated":false}`, string(b))

	// keys never escape the directory
	fs.Save("../escape", []byte(`{}`))
	_, err = os.Stat(filepath.Join(dir, "escape.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRedisStorage_NamespaceAndOutage(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	rs := NewRedisStorageFromClient(client, "test", quietLogger())

	rs.Save("categorie-storage", []byte(`{"items":["x"]}`))
	assert.True(t, mr.Exists("test:categorie-storage"))

	mr.Close()
	// an unreachable server reads as "no snapshot" and writes are dropped silently
	assert.Nil(t, rs.Load("categorie-storage"))
	rs.Save("categorie-storage", []byte(`{}`))
}

func TestMemoryStorage_CopiesBlobs(t *testing.T) {
	m := NewMemoryStorage()
	blob := []byte(`{"items":["a"]}`)
	m.Save("k", blob)
	blob[0] = 'X'
	assert.Equal(t, byte('{'), m.Load("k")[0])
}
