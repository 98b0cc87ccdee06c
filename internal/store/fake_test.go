package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"comparateur/internal/persist"
)

type call struct {
	method, path string
	auth         bool
	body         string
}

type reply struct {
	body string
	err  error
}

// fakeAPI отвечает по сценарию "METHOD path" -> reply и записывает вызовы
type fakeAPI struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []call
	// gate, если задан, держит каждый запрос до закрытия канала
	gate chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{replies: make(map[string]reply)}
}

func (f *fakeAPI) on(method, path, body string) *fakeAPI {
	f.mu.Lock()
	f.replies[method+" "+path] = reply{body: body}
	f.mu.Unlock()
	return f
}

func (f *fakeAPI) fail(method, path string, err error) *fakeAPI {
	f.mu.Lock()
	f.replies[method+" "+path] = reply{err: err}
	f.mu.Unlock()
	return f
}

func (f *fakeAPI) Do(ctx context.Context, method, path string, body any, auth bool) (json.RawMessage, error) {
	var b string
	if body != nil {
		raw, _ := json.Marshal(body)
		b = string(raw)
	}
	f.mu.Lock()
	f.calls = append(f.calls, call{method: method, path: path, auth: auth, body: b})
	r, ok := f.replies[method+" "+path]
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		panic("fakeAPI: unexpected call " + method + " " + path)
	}
	if r.err != nil {
		return nil, r.err
	}
	if r.body == "" {
		return nil, nil
	}
	return json.RawMessage(r.body), nil
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) lastCall() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func snapshotOf(t *testing.T, s persist.Storage, key string) string {
	t.Helper()
	return string(s.Load(key))
}
