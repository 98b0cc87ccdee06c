package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Драйверы хранилища снимков
const (
	StorageFile   = "file"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config настройки клиента и мок-бэкенда
type Config struct {
	LogLevel string

	// Бэкенд каталога
	APIBaseURL     string
	OffersListPath string
	HTTPTimeout    time.Duration
	Tracing        bool

	// Снимки хранилищ
	StorageDriver  string
	StorageDir     string
	RedisURL       string
	RedisNamespace string

	CoalesceFetches bool

	// Мок-бэкенд
	MockAddr     string
	MockSecret   string
	MockSeedPath string
	MockTokenTTL time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// getenvDuration принимает "30s", "1m" и т.п.; голое число читается как секунды
func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

// Load читает .env (если есть) и переменные окружения
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		LogLevel: getenv("LOG_LEVEL", "INFO"),

		APIBaseURL:     strings.TrimRight(getenv("API_BASE_URL", "http://localhost:9091"), "/"),
		OffersListPath: getenv("OFFERS_LIST_PATH", "/api/offres"),
		HTTPTimeout:    getenvDuration("HTTP_TIMEOUT", 0),
		Tracing:        getenvBool("HTTP_TRACING", false),

		StorageDriver:  strings.ToLower(getenv("STORAGE_DRIVER", StorageFile)),
		StorageDir:     getenv("STORAGE_DIR", ".cache"),
		RedisURL:       getenv("REDIS_URL", "redis://localhost:6379/0"),
		RedisNamespace: getenv("REDIS_NAMESPACE", "comparateur"),

		CoalesceFetches: getenvBool("COALESCE_FETCHES", false),

		MockAddr:     getenv("MOCKAPI_ADDR", ":9091"),
		MockSecret:   getenv("MOCKAPI_SECRET", "dev-secret-change-me"),
		MockSeedPath: getenv("MOCKAPI_SEED", ""),
		MockTokenTTL: getenvDuration("MOCKAPI_TOKEN_TTL", 24*time.Hour),
	}
}

// Validate проверяет значения, без которых клиент не поднимется.
// Настройки MOCKAPI_* сюда не входят, см. ValidateMock.
func (c *Config) Validate() error {
	var errs []error
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("API_BASE_URL: invalid url %q", c.APIBaseURL))
	}
	if !strings.HasPrefix(c.OffersListPath, "/") {
		errs = append(errs, fmt.Errorf("OFFERS_LIST_PATH: must start with /, got %q", c.OffersListPath))
	}
	switch c.StorageDriver {
	case StorageFile, StorageRedis, StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", c.StorageDriver))
	}
	if c.HTTPTimeout < 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT: negative duration %s", c.HTTPTimeout))
	}
	return errors.Join(errs...)
}

// ValidateMock проверяет настройки мок-бэкенда; клиент их не читает
func (c *Config) ValidateMock() error {
	var errs []error
	if c.MockAddr == "" {
		errs = append(errs, errors.New("MOCKAPI_ADDR: empty listen address"))
	}
	if c.MockSecret == "" {
		errs = append(errs, errors.New("MOCKAPI_SECRET: empty signing secret"))
	}
	if c.MockTokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("MOCKAPI_TOKEN_TTL: must be positive, got %s", c.MockTokenTTL))
	}
	return errors.Join(errs...)
}

// SlogLevel уровень логирования из LOG_LEVEL; неизвестное значение даёт INFO
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// NewLogger текстовый логгер в stderr с уровнем из конфигурации
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.SlogLevel()}))
}
