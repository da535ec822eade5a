package apiclient

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout — ответ не получен за отведённое время. Refresh не выполняется.
	ErrTimeout = errors.New("request timed out")

	// ErrUnauthorized — 401 на запрос, который уже был повторён после refresh.
	// Терминальная ошибка: повторного обновления токена не будет.
	ErrUnauthorized = errors.New("unauthorized after token refresh")

	// ErrRefreshTokenMissing — нужен refresh, но refresh-токена в хранилище нет.
	// Вызывающий должен отправить пользователя на повторный вход.
	ErrRefreshTokenMissing = errors.New("refresh token not found")

	// ErrRefreshFailed — вызов /auth/refresh не удался (сеть, статус >= 400,
	// битый ответ). Вызывающий должен отправить пользователя на повторный вход.
	ErrRefreshFailed = errors.New("token refresh failed")
)

// StatusError — ответ с HTTP-статусом >= 400, который пайплайн не обрабатывает
// сам и отдаёт вызывающему без изменений.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
}

// StatusCode возвращает HTTP-статус из цепочки ошибок, если он там есть.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}

	return 0, false
}

// ReauthRequired сообщает, что сессию восстановить нельзя и вызывающий должен
// заново пройти вход. Навигацией пайплайн не владеет — только классифицирует.
func ReauthRequired(err error) bool {
	return errors.Is(err, ErrRefreshTokenMissing) || errors.Is(err, ErrRefreshFailed)
}
