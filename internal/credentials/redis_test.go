package credentials

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты RedisStore поднимают реальный Redis через testcontainers-go.
//
// Запуск:
//   GO_TEST_INTEGRATION=1 go test ./internal/credentials -v -race -count=1

func startRedis(t *testing.T) string {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "docker.io/redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestRedisStore_Contract(t *testing.T) {
	url := startRedis(t)

	n := 0
	runStoreContract(t, func(t *testing.T) Store {
		// Отдельный префикс на каждый подтест — общая БД без пересечений.
		n++
		st, err := NewRedisStore(context.Background(), url, fmt.Sprintf("test%d:", n))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		return st
	})
}

func TestNewRedisStore_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisStore(context.Background(), "://bad", "")
	require.Error(t, err)
}
