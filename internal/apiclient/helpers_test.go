package apiclient

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/simpa-client/internal/credentials"
	"github.com/pribylovaa/simpa-client/internal/metrics"
)

// capHandler собирает все записи slog (потокобезопасно).
type capHandler struct {
	mu      sync.Mutex
	base    []slog.Attr
	records []capRecord
}

type capRecord struct {
	msg   string
	lvl   slog.Level
	attrs map[string]any
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	h.records = append(h.records, capRecord{msg: r.Message, lvl: r.Level, attrs: out})
	return nil
}

// WithAttrs возвращает дочерний хендлер с общим буфером записей.
func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &childHandler{root: h, base: attrs}
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func (h *capHandler) count(msg string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, r := range h.records {
		if r.msg == msg {
			n++
		}
	}
	return n
}

func (h *capHandler) find(msg string) (capRecord, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, r := range h.records {
		if r.msg == msg {
			return r, true
		}
	}
	return capRecord{}, false
}

func (h *capHandler) all() []capRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]capRecord(nil), h.records...)
}

type childHandler struct {
	root *capHandler
	base []slog.Attr
}

func (c *childHandler) Enabled(context.Context, slog.Level) bool { return true }

func (c *childHandler) Handle(ctx context.Context, r slog.Record) error {
	r = r.Clone()
	r.AddAttrs(c.base...)
	return c.root.Handle(ctx, r)
}

func (c *childHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &childHandler{root: c.root, base: append(append([]slog.Attr(nil), c.base...), attrs...)}
}

func (c *childHandler) WithGroup(string) slog.Handler { return c }

// fakeAPI — минимальный бэкенд: /proyek под Bearer и /auth/refresh.
type fakeAPI struct {
	t *testing.T

	// validToken — токен, с которым /proyek отвечает 200.
	validToken atomic.Value
	// refreshStatus — код ответа /auth/refresh (0 — 200).
	refreshStatus atomic.Int32
	// issueToken — что вернёт успешный refresh.
	issueToken string
	// resourceDelay — задержка ответа /proyek.
	resourceDelay time.Duration
	// beforeRefresh вызывается перед ответом /auth/refresh.
	beforeRefresh func()
	// onUnauthorized вызывается после каждого 401 от /proyek.
	onUnauthorized func()

	resourceHits atomic.Int32
	refreshHits  atomic.Int32

	mu          sync.Mutex
	authHeaders []string
	requestIDs  []string
	refreshBody []string
}

func newFakeAPI(t *testing.T, validToken, issueToken string) *fakeAPI {
	f := &fakeAPI{t: t, issueToken: issueToken}
	f.validToken.Store(validToken)
	return f
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case RefreshPath:
		f.refreshHits.Add(1)

		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)

		f.mu.Lock()
		f.refreshBody = append(f.refreshBody, body["refreshToken"])
		f.mu.Unlock()

		if f.beforeRefresh != nil {
			f.beforeRefresh()
		}

		if code := int(f.refreshStatus.Load()); code != 0 {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"message":"invalid refresh token"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accessToken":"` + f.issueToken + `"}`))

	case "/proyek":
		f.resourceHits.Add(1)

		f.mu.Lock()
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		f.requestIDs = append(f.requestIDs, r.Header.Get("X-Request-Id"))
		f.mu.Unlock()

		if f.resourceDelay > 0 {
			select {
			case <-time.After(f.resourceDelay):
			case <-r.Context().Done():
				return
			}
		}

		want := f.validToken.Load().(string)
		if r.Header.Get("Authorization") != "Bearer "+want {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"token expired"}`))
			if f.onUnauthorized != nil {
				f.onUnauthorized()
			}
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"nama":"Gedung Rektorat"}]`))

	case "/open":
		_, _ = w.Write([]byte(`{"ok":true}`))

	case "/missing":
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))

	default:
		if strings.HasPrefix(r.URL.Path, "/echo") {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"query": r.URL.RawQuery,
				"ct":    r.Header.Get("Content-Type"),
				"ua":    r.Header.Get("User-Agent"),
			})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeAPI) headers() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

func (f *fakeAPI) refreshTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.refreshBody...)
}

func (f *fakeAPI) rids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requestIDs...)
}

type harness struct {
	api     *fakeAPI
	srv     *httptest.Server
	store   credentials.Store
	client  *Client
	logs    *capHandler
	metrics *metrics.Client
}

func newHarness(t *testing.T, api *fakeAPI, store credentials.Store, mutate func(*Options)) *harness {
	t.Helper()

	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	h := &capHandler{}
	m := metrics.NewClient(prometheus.NewRegistry())

	opts := Options{
		BaseURL:   srv.URL,
		Timeout:   2 * time.Second,
		UserAgent: "simpa-test",
		Logger:    slog.New(h),
		Metrics:   m,
	}
	if mutate != nil {
		mutate(&opts)
	}

	c, err := New(store, opts)
	require.NoError(t, err)

	return &harness{api: api, srv: srv, store: store, client: c, logs: h, metrics: m}
}

func seedStore(t *testing.T, access, refresh string) *credentials.MemoryStore {
	t.Helper()

	st := credentials.NewMemoryStore()
	ctx := context.Background()
	if access != "" {
		require.NoError(t, st.Set(ctx, credentials.KeyAccessToken, access))
	}
	if refresh != "" {
		require.NoError(t, st.Set(ctx, credentials.KeyRefreshToken, refresh))
	}
	return st
}

func getValue(t *testing.T, st credentials.Store, key string) (string, bool) {
	t.Helper()

	v, ok, err := st.Get(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}
