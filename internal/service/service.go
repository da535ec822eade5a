// service содержит операции SIMPA-клиента поверх аутентифицированного
// HTTP-клиента: вход и выход, состояние сессии, навигацию по иерархии
// проект/здание/помещение/юнит, переменные осмотра и очистки, отправку
// записи обслуживания и историю.
//
// Service не хранит состояние запроса; экземпляр безопасен для
// конкурентного использования, если безопасны API и credentials.Store.
package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/pribylovaa/simpa-client/internal/apiclient"
	"github.com/pribylovaa/simpa-client/internal/credentials"
)

var (
	// ErrInvalidCredentials — сервер отклонил пару логин/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokensMissing — ответ на вход не содержит accessToken или refreshToken.
	ErrTokensMissing = errors.New("tokens not found in login response")

	// ErrRoleNotAllowed — роль пользователя не допускается к работе в клиенте.
	ErrRoleNotAllowed = errors.New("role not allowed")

	// ErrNotLoggedIn — в хранилище нет access-токена.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrNotFound — запрошенный объект отсутствует в справочнике.
	ErrNotFound = errors.New("not found")

	// ErrIncompleteForm — не выбран юнит, нет результатов осмотра или меньше двух фото.
	ErrIncompleteForm = errors.New("form is incomplete")

	// ErrInspectionIncomplete — у результата осмотра пустое значение.
	ErrInspectionIncomplete = errors.New("inspection results must be filled")

	// ErrCleaningIncomplete — значения очистки "до"/"после" не заполнены или не числа.
	ErrCleaningIncomplete = errors.New("cleaning results must be filled with numbers")

	// ErrInvalidPhoto — пустое фото или неизвестный статус.
	ErrInvalidPhoto = errors.New("invalid photo")

	// ErrPageOutOfRange — номер страницы вне диапазона.
	ErrPageOutOfRange = errors.New("page out of range")
)

// API — поверхность аутентифицированного клиента, которой пользуется Service.
type API interface {
	Do(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error)
	GetJSON(ctx context.Context, path string, query url.Values, out any) error
	PostJSON(ctx context.Context, path string, in, out any) error
}

// Service — операции SIMPA-клиента.
type Service struct {
	api         API
	store       credentials.Store
	allowedRole string
	now         func() time.Time
}

// New создаёт Service. allowedRole — единственная роль, которой разрешён вход.
func New(api API, store credentials.Store, allowedRole string) *Service {
	return &Service{
		api:         api,
		store:       store,
		allowedRole: allowedRole,
		now:         time.Now,
	}
}
