package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TokenSource отдаёт текущий bearer-токен сессии; пустая строка значит "нет токена"
type TokenSource interface {
	Token() string
}

// TokenFunc адаптер функции к TokenSource
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Requester контракт, которым пользуются сторы
type Requester interface {
	Do(ctx context.Context, method, path string, body any, authRequired bool) (json.RawMessage, error)
}

// Client тонкая обёртка над REST API одного хоста.
// Не делает ретраев, не дедуплицирует запросы, таймаут задаётся только опционально.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

func WithTokenSource(ts TokenSource) Option { return func(c *Client) { c.tokens = ts } }

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithTimeout 0 оставляет таймаут по умолчанию платформы
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTracing оборачивает транспорт в otelhttp, спаны уходят в глобальный провайдер
func WithTracing() Option {
	return func(c *Client) {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.http.Transport = otelhttp.NewTransport(base)
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		tokens:  TokenFunc(func() string { return "" }),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ Requester = (*Client)(nil)

// Do выполняет запрос и возвращает тело успешного ответа как есть (nil для пустого тела).
func (c *Client) Do(ctx context.Context, method, path string, body any, authRequired bool) (json.RawMessage, error) {
	var token string
	if authRequired {
		token = c.tokens.Token()
		if token == "" {
			return nil, ErrAuthMissing
		}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("gateway: request failed", "method", method, "path", path, "request_id", reqID, "error", err)
		return nil, &NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Cause: err}
	}
	c.logger.Debug("gateway: response", "method", method, "path", path, "request_id", reqID, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{Status: resp.StatusCode, Message: errorMessage(payload)}
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, nil
	}
	return json.RawMessage(payload), nil
}

// errorMessage достаёт текст ошибки из тела: message, затем error
func errorMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return unknownErrorMessage
	}
	switch {
	case body.Message != "":
		return body.Message
	case body.Error != "":
		return body.Error
	default:
		return unknownErrorMessage
	}
}
