package apiclient

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pribylovaa/simpa-client/internal/metrics"
	"github.com/pribylovaa/simpa-client/internal/pkg/log"
)

type ctxKey string

const ctxRequestID ctxKey = "request_id"

// WithRequestID кладёт идентификатор логического вызова в контекст.
// Исходный запрос, refresh и повторная отправка делят один id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestIDFrom достаёт идентификатор вызова из контекста ("" если нет).
func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}

	return ""
}

// Middleware — обёртка над http.RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// RoundTripperFunc адаптирует функцию к http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Chain оборачивает rt мидлварами; первый в списке — самый внешний.
func Chain(rt http.RoundTripper, mws ...Middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}

	return rt
}

// WithHeaders добавляет в исходящий запрос заголовки:
//   - X-Request-Id (если есть в контексте);
//   - User-Agent (если передан параметром).
//
// Исходный *http.Request не модифицируется (контракт RoundTripper).
func WithHeaders(userAgent string) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			rid := RequestIDFrom(r.Context())
			if rid == "" && userAgent == "" {
				return next.RoundTrip(r)
			}

			r = r.Clone(r.Context())
			if rid != "" {
				r.Header.Set("X-Request-Id", rid)
			}
			if userAgent != "" {
				r.Header.Set("User-Agent", userAgent)
			}

			return next.RoundTrip(r)
		})
	}
}

// WithLogging пишет одну запись на попытку: msg="http_call", method, path,
// status (или err), dur. Логгер берётся из контекста запроса.
// Тело и заголовки (в том числе Authorization) не логируются.
func WithLogging() Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("dur", time.Since(start)),
			}

			lvl := slog.LevelInfo
			if err != nil {
				lvl = slog.LevelWarn
				attrs = append(attrs, slog.String("err", err.Error()))
			} else {
				attrs = append(attrs, slog.Int("status", resp.StatusCode))
			}

			log.From(r.Context()).LogAttrs(r.Context(), lvl, "http_call", attrs...)

			return resp, err
		})
	}
}

// WithMetrics считает попытки и их длительность.
func WithMetrics(m *metrics.Client) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)

			code := "error"
			if err == nil {
				code = strconv.Itoa(resp.StatusCode)
			}

			m.Requests.WithLabelValues(r.Method, code).Inc()
			m.Duration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())

			return resp, err
		})
	}
}
