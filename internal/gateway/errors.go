package gateway

import (
	"errors"
	"fmt"
)

// ErrAuthMissing запрос требует токен, а в сессии его нет; сеть не трогается
var ErrAuthMissing = errors.New("gateway: authentication token missing")

const unknownErrorMessage = "unknown error"

// HTTPError сервер ответил не-2xx статусом
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gateway: http %d: %s", e.Status, e.Message)
}

// NetworkError ответа не было вовсе: офлайн, DNS, таймаут платформы, отмена контекста
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gateway: network: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// StatusOf возвращает HTTP статус из цепочки ошибок или 0
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}
