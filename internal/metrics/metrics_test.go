package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RegistersCollectors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewClient(reg)

	m.Requests.WithLabelValues("GET", "200").Inc()
	m.Refresh.WithLabelValues(RefreshOK).Inc()
	m.Retries.Inc()

	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Refresh.WithLabelValues(RefreshOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Retries))

	// Повторная регистрация в том же реестре должна паниковать.
	require.Panics(t, func() { NewClient(reg) })
}

func TestNewClient_NilRegisterer(t *testing.T) {
	t.Parallel()

	m := NewClient(nil)
	m.Timeouts.Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(m.Timeouts))
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewServer(reg)
	m.Requests.WithLabelValues("/proyek", "200").Inc()

	n, err := testutil.GatherAndCount(reg, "simpa_mockapi_requests_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
