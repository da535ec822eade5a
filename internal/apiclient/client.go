// apiclient — HTTP-клиент SIMPA API с прозрачным обновлением access-токена.
//
// Пайплайн одного вызова:
//  1. декорирование: access-токен читается из credentials.Store в неизменяемый
//     снимок и ставится в Authorization: Bearer <token>; если токена нет,
//     запрос уходит без заголовка;
//  2. отправка через цепочку RoundTripper (headers -> logging -> metrics);
//  3. разбор ответа:
//     - таймаут -> ErrTimeout, без refresh;
//     - 401 и маркер повтора не выставлен -> маркер, refresh, ровно один повтор;
//     - 401 на уже повторённом запросе -> ErrUnauthorized;
//     - прочие статусы >= 400 -> *StatusError без изменений.
//
// Клиент безопасен для конкурентного использования. Конкурентные 401 по
// умолчанию обновляют токен независимо друг от друга; Options.CoalesceRefresh
// объединяет их в один вызов /auth/refresh.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pribylovaa/simpa-client/internal/credentials"
	"github.com/pribylovaa/simpa-client/internal/metrics"
	"github.com/pribylovaa/simpa-client/internal/pkg/log"
)

const (
	// RefreshPath — эндпойнт обмена refresh-токена на новый access-токен.
	RefreshPath = "/auth/refresh"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 32 << 20
)

// Options — параметры сборки клиента.
type Options struct {
	BaseURL   string
	Timeout   time.Duration // дедлайн одной попытки; не переопределяет дедлайн ctx
	UserAgent string

	// CoalesceRefresh — конкурентные refresh делят один вызов.
	CoalesceRefresh bool

	Logger    *slog.Logger
	Metrics   *metrics.Client   // nil — незарегистрированные коллекторы
	Transport http.RoundTripper // nil — http.DefaultTransport
}

// Client — аутентифицированный HTTP-клиент.
type Client struct {
	base    string
	hc      *http.Client
	store   credentials.Store
	timeout time.Duration
	log     *slog.Logger
	metrics *metrics.Client
	group   *singleflight.Group // nil, если объединение refresh выключено
}

// New собирает клиент поверх хранилища учётных данных.
func New(store credentials.Store, opts Options) (*Client, error) {
	const op = "apiclient/New"

	if store == nil {
		return nil, fmt.Errorf("%s: nil credential store", op)
	}

	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%s: invalid base url %q", op, opts.BaseURL)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.NewClient(nil)
	}

	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	// Цепочка: headers -> logging -> metrics.
	rt := Chain(opts.Transport,
		WithHeaders(opts.UserAgent),
		WithLogging(),
		WithMetrics(opts.Metrics),
	)

	c := &Client{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		hc:      &http.Client{Transport: rt},
		store:   store,
		timeout: opts.Timeout,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}

	if opts.CoalesceRefresh {
		c.group = &singleflight.Group{}
	}

	return c, nil
}

// Do выполняет вызов через пайплайн. Успешный ответ (< 400), в том числе
// после refresh и повтора, возвращается без ошибки; все остальные исходы —
// типизированной ошибкой.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	const op = "apiclient/Do"

	if req == nil {
		return nil, fmt.Errorf("%s: nil request", op)
	}

	ctx = c.callScope(ctx)
	rc := newRequestContext(req)

	if req.SkipAuth {
		resp, err := c.attempt(ctx, rc, credentials.Snapshot{})
		if err != nil {
			return nil, err
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, fmt.Errorf("%s: %w", op, c.statusError(rc, resp))
		}

		return resp, nil
	}

	return c.do(ctx, rc, c.snapshot(ctx))
}

func (c *Client) do(ctx context.Context, rc *requestContext, snap credentials.Snapshot) (*Response, error) {
	const op = "apiclient/do"

	resp, err := c.attempt(ctx, rc, snap)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized && rc.retried:
		log.From(ctx).Warn("unauthorized_after_retry", slog.String("path", rc.req.Path))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnauthorized, c.statusError(rc, resp))

	case resp.StatusCode == http.StatusUnauthorized:
		return c.refreshAndRetry(ctx, rc)

	case resp.StatusCode >= http.StatusBadRequest:
		return nil, fmt.Errorf("%s: %w", op, c.statusError(rc, resp))
	}

	return resp, nil
}

// refreshAndRetry обновляет токен и повторяет запрос ровно один раз.
func (c *Client) refreshAndRetry(ctx context.Context, rc *requestContext) (*Response, error) {
	// Маркер — до любой асинхронной работы.
	rc.markRetried()

	token, err := c.refresh(ctx)
	if err != nil {
		return nil, err
	}

	c.metrics.Retries.Inc()
	log.From(ctx).Info("request_resubmit", slog.String("path", rc.req.Path))

	// Повтор штампуется явным снимком с новым токеном, а не общим состоянием.
	return c.do(ctx, rc.resubmission(token), credentials.Snapshot{AccessToken: token})
}

// attempt — одна попытка с классификацией транспортных ошибок.
func (c *Client) attempt(ctx context.Context, rc *requestContext, snap credentials.Snapshot) (*Response, error) {
	const op = "apiclient/attempt"

	resp, err := c.send(ctx, rc.req, snap)
	if err == nil {
		return resp, nil
	}

	if isTimeout(err) {
		c.metrics.Timeouts.Inc()
		log.From(ctx).Warn("request_timeout",
			slog.String("path", rc.req.Path),
			slog.Duration("timeout", c.timeout),
		)
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	}

	return nil, fmt.Errorf("%s: %w", op, err)
}

// send собирает *http.Request, отправляет его и вычитывает тело.
// Дедлайн попытки ставится, только если у ctx его ещё нет.
func (c *Client) send(ctx context.Context, req *Request, snap credentials.Snapshot) (*Response, error) {
	actx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	hreq, err := c.build(actx, req, snap)
	if err != nil {
		return nil, err
	}

	hresp, err := c.hc.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(hresp.Body, maxBodySize))
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: hresp.StatusCode,
		Header:     hresp.Header,
		Body:       body,
	}, nil
}

func (c *Client) build(ctx context.Context, req *Request, snap credentials.Snapshot) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := c.resolve(req.Path)
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}

	hreq.Header.Set("Accept", "application/json")
	if len(req.Body) > 0 && hreq.Header.Get("Content-Type") == "" {
		hreq.Header.Set("Content-Type", "application/json")
	}

	if !req.SkipAuth {
		if h, ok := snap.Authorization(); ok {
			hreq.Header.Set("Authorization", h)
		}
	}

	return hreq, nil
}

// resolve склеивает относительный путь с базовым URL; абсолютный URL
// используется как есть.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}

	return c.base + "/" + strings.TrimLeft(path, "/")
}

// snapshot читает текущий access-токен. Ошибка чтения логируется и
// трактуется как отсутствие токена.
func (c *Client) snapshot(ctx context.Context) credentials.Snapshot {
	snap, err := credentials.LoadSnapshot(ctx, c.store)
	if err != nil {
		log.From(ctx).Error("access_token_read_failed", slog.String("err", err.Error()))
		return credentials.Snapshot{}
	}

	if snap.AccessToken == "" {
		log.From(ctx).Warn("access_token_missing")
	}

	return snap
}

// callScope гарантирует request id и request-scoped логгер в контексте.
func (c *Client) callScope(ctx context.Context) context.Context {
	rid := RequestIDFrom(ctx)
	if rid == "" {
		rid = uuid.NewString()
		ctx = WithRequestID(ctx, rid)
	}

	return log.Into(ctx, c.log.With(slog.String("request_id", rid)))
}

func (c *Client) statusError(rc *requestContext, resp *Response) *StatusError {
	method := rc.req.Method
	if method == "" {
		method = http.MethodGet
	}

	return &StatusError{
		Method:     method,
		URL:        c.resolve(rc.req.Path),
		StatusCode: resp.StatusCode,
		Body:       resp.Body,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
