package credentials

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// Общий контракт Store прогоняется для всех реализаций без внешних зависимостей.
// RedisStore проверяется тем же контрактом в redis_test.go (интеграционно).

func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("get_absent", func(t *testing.T) {
		st := newStore(t)
		v, ok, err := st.Get(context.Background(), KeyAccessToken)
		require.NoError(t, err)
		require.False(t, ok)
		require.Empty(t, v)
	})

	t.Run("set_get_overwrite", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		require.NoError(t, st.Set(ctx, KeyAccessToken, "T1"))
		v, ok, err := st.Get(ctx, KeyAccessToken)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "T1", v)

		require.NoError(t, st.Set(ctx, KeyAccessToken, "T2"))
		v, _, err = st.Get(ctx, KeyAccessToken)
		require.NoError(t, err)
		require.Equal(t, "T2", v)
	})

	t.Run("remove", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		require.NoError(t, st.Set(ctx, KeyRefreshToken, "R1"))
		require.NoError(t, st.Remove(ctx, KeyRefreshToken))
		_, ok, err := st.Get(ctx, KeyRefreshToken)
		require.NoError(t, err)
		require.False(t, ok)

		// Удаление отсутствующего ключа — не ошибка.
		require.NoError(t, st.Remove(ctx, KeyRefreshToken))
	})

	t.Run("empty_key", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		_, _, err := st.Get(ctx, "")
		require.ErrorIs(t, err, ErrEmptyKey)
		require.ErrorIs(t, st.Set(ctx, "", "x"), ErrEmptyKey)
		require.ErrorIs(t, st.Remove(ctx, ""), ErrEmptyKey)
	})

	t.Run("clear", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		require.NoError(t, st.Set(ctx, KeyAccessToken, "T1"))
		require.NoError(t, st.Set(ctx, KeyRefreshToken, "R1"))
		require.NoError(t, st.Set(ctx, KeyUserData, `{"role":"teknisi"}`))

		require.NoError(t, Clear(ctx, st))

		for _, k := range []string{KeyAccessToken, KeyRefreshToken, KeyUserData} {
			_, ok, err := st.Get(ctx, k)
			require.NoError(t, err)
			require.False(t, ok, k)
		}
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	t.Parallel()
	runStoreContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestFileStore_Contract(t *testing.T) {
	t.Parallel()
	runStoreContract(t, func(t *testing.T) Store {
		st, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "creds.json"))
		require.NoError(t, err)
		return st
	})
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "creds.json")
	ctx := context.Background()

	st1, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, st1.Set(ctx, KeyAccessToken, "T1"))

	// Новый экземпляр — как после перезапуска процесса.
	st2, err := NewFileStore(path)
	require.NoError(t, err)
	v, ok, err := st2.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "T1", v)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_CorruptedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	st, err := NewFileStore(path)
	require.NoError(t, err)

	_, _, err = st.Get(context.Background(), KeyAccessToken)
	require.Error(t, err)
}

func TestNewFileStore_EmptyPath(t *testing.T) {
	t.Parallel()
	_, err := NewFileStore("")
	require.Error(t, err)
}

func TestMemoryStore_ConcurrentWriters_LastWriterWins(t *testing.T) {
	t.Parallel()

	st := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, v := range []string{"A", "B", "C", "D"} {
		wg.Add(1)
		go func(v string) {
			defer wg.Done()
			_ = st.Set(ctx, KeyAccessToken, v)
		}(v)
	}
	wg.Wait()

	got, ok, err := st.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, []string{"A", "B", "C", "D"}, got)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := NewMemoryStore()

	snap, err := LoadSnapshot(ctx, st)
	require.NoError(t, err)
	_, ok := snap.Authorization()
	require.False(t, ok)

	require.NoError(t, st.Set(ctx, KeyAccessToken, "T1"))
	snap, err = LoadSnapshot(ctx, st)
	require.NoError(t, err)

	h, ok := snap.Authorization()
	require.True(t, ok)
	require.Equal(t, "Bearer T1", h)

	// Снимок не меняется при последующей записи в хранилище.
	require.NoError(t, st.Set(ctx, KeyAccessToken, "T2"))
	h, _ = snap.Authorization()
	require.Equal(t, "Bearer T1", h)
}
