package apiclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/simpa-client/internal/metrics"
	"github.com/pribylovaa/simpa-client/internal/pkg/log"
)

func okTransport(seen *http.Request) RoundTripperFunc {
	return func(r *http.Request) (*http.Response, error) {
		*seen = *r
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("{}")),
			Request:    r,
		}, nil
	}
}

func TestWithHeaders_SetsRequestIDAndUserAgent(t *testing.T) {
	t.Parallel()

	var seen http.Request
	rt := WithHeaders("simpa-cli")(okTransport(&seen))

	ctx := WithRequestID(context.Background(), "rid-1")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://simpa.local/proyek", nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	require.NoError(t, err)

	require.Equal(t, "rid-1", seen.Header.Get("X-Request-Id"))
	require.Equal(t, "simpa-cli", seen.Header.Get("User-Agent"))

	// Исходный запрос не модифицирован.
	require.Empty(t, req.Header.Get("X-Request-Id"))
}

func TestWithHeaders_SkipEmptyValues(t *testing.T) {
	t.Parallel()

	var seen http.Request
	rt := WithHeaders("")(okTransport(&seen))

	req, err := http.NewRequest(http.MethodGet, "http://simpa.local/proyek", nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	require.NoError(t, err)
	require.Empty(t, seen.Header.Get("X-Request-Id"))
	require.Empty(t, seen.Header.Get("User-Agent"))
}

func TestWithLogging_LogsCall(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	ctx := log.Into(context.Background(), slog.New(h))

	var seen http.Request
	rt := WithLogging()(okTransport(&seen))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://simpa.local/unit/ruangan/3", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")

	_, err = rt.RoundTrip(req)
	require.NoError(t, err)

	rec, ok := h.find("http_call")
	require.True(t, ok)
	require.Equal(t, slog.LevelInfo, rec.lvl)
	require.Equal(t, "GET", rec.attrs["method"])
	require.Equal(t, "/unit/ruangan/3", rec.attrs["path"])
	require.EqualValues(t, 200, rec.attrs["status"])
	require.NotContains(t, rec.attrs, "authorization")
}

func TestWithLogging_ErrorIsWarn(t *testing.T) {
	t.Parallel()

	h := &capHandler{}
	ctx := log.Into(context.Background(), slog.New(h))

	rt := WithLogging()(RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://simpa.local/maintenance", nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	require.Error(t, err)

	rec, ok := h.find("http_call")
	require.True(t, ok)
	require.Equal(t, slog.LevelWarn, rec.lvl)
	require.Equal(t, "connection refused", rec.attrs["err"])
}

func TestWithMetrics_CountsAttempts(t *testing.T) {
	t.Parallel()

	m := metrics.NewClient(prometheus.NewRegistry())

	var seen http.Request
	ok := WithMetrics(m)(okTransport(&seen))
	fail := WithMetrics(m)(RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("dial")
	}))

	req, err := http.NewRequest(http.MethodGet, "http://simpa.local/proyek", nil)
	require.NoError(t, err)

	_, err = ok.RoundTrip(req)
	require.NoError(t, err)
	_, err = fail.RoundTrip(req)
	require.Error(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "error")))
}

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next http.RoundTripper) http.RoundTripper {
			return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
				order = append(order, name)
				return next.RoundTrip(r)
			})
		}
	}

	var seen http.Request
	rt := Chain(okTransport(&seen), mw("outer"), mw("inner"))

	req, err := http.NewRequest(http.MethodGet, "http://simpa.local/", nil)
	require.NoError(t, err)

	_, err = rt.RoundTrip(req)
	require.NoError(t, err)
	require.Equal(t, []string{"outer", "inner"}, order)
}
