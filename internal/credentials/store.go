// credentials — долговременное хранилище учётных данных клиента.
//
// Хранилище — простая key-value поверхность (Get/Set/Remove) с семантикой
// last-writer-wins и без атомарности read-modify-write. Ключи фиксированы:
// accessToken, refreshToken, userData.
//
// Реализации:
//   - FileStore — JSON-файл на диске (по умолчанию для CLI);
//   - RedisStore — Redis (общий стор для нескольких процессов);
//   - MemoryStore — в памяти процесса (тесты, mock API).
package credentials

import (
	"context"
	"errors"
	"fmt"
)

const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserData     = "userData"
)

// ErrEmptyKey — попытка обратиться к хранилищу с пустым ключом.
var ErrEmptyKey = errors.New("empty key")

// Store задаёт контракт хранилища учётных данных.
//
// Отсутствие ключа не является ошибкой: Get возвращает ("", false, nil).
// Remove отсутствующего ключа тоже не ошибка.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Snapshot — неизменяемый снимок учётных данных, которым штампуется
// конкретный исходящий запрос.
type Snapshot struct {
	AccessToken string
}

// Authorization возвращает значение заголовка Authorization, если токен есть.
func (s Snapshot) Authorization() (string, bool) {
	if s.AccessToken == "" {
		return "", false
	}

	return "Bearer " + s.AccessToken, true
}

// LoadSnapshot читает текущий access-токен из хранилища.
// Отсутствие токена даёт пустой снимок без ошибки.
func LoadSnapshot(ctx context.Context, st Store) (Snapshot, error) {
	const op = "credentials/LoadSnapshot"

	tok, ok, err := st.Get(ctx, KeyAccessToken)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return Snapshot{}, nil
	}

	return Snapshot{AccessToken: tok}, nil
}

// Clear удаляет все ключи сессии. Возвращает первую ошибку, но пытается
// удалить все ключи.
func Clear(ctx context.Context, st Store) error {
	const op = "credentials/Clear"

	var firstErr error
	for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyUserData} {
		if err := st.Remove(ctx, k); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("%s: remove %s: %w", op, k, err)
		}
	}

	return firstErr
}
