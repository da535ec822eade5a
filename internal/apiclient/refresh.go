package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pribylovaa/simpa-client/internal/credentials"
	"github.com/pribylovaa/simpa-client/internal/metrics"
	"github.com/pribylovaa/simpa-client/internal/models"
	"github.com/pribylovaa/simpa-client/internal/pkg/log"
	"github.com/pribylovaa/simpa-client/internal/pkg/redact"
)

// refresh возвращает новый access-токен. При включённом CoalesceRefresh
// конкурентные вызовы ждут один общий запрос (и получают его результат).
//
// Общий запрос не привязан к отмене первого вызывающего: он идёт на
// context.WithoutCancel с таймаутом попытки клиента. Каждый ожидающий
// следит только за своим ctx; отмена или дедлайн вызывающего возвращаются
// ему как context.Canceled или ErrTimeout, а не как ErrRefreshFailed.
func (c *Client) refresh(ctx context.Context) (string, error) {
	const op = "apiclient/refresh"

	if c.group == nil {
		return c.refreshOnce(ctx)
	}

	ch := c.group.DoChan("refresh", func() (any, error) {
		return c.refreshOnce(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", c.abandoned(ctx, op)

	case res := <-ch:
		if res.Shared {
			log.From(ctx).Debug("refresh_shared")
		}

		if res.Err != nil {
			return "", res.Err
		}

		return res.Val.(string), nil
	}
}

// refreshOnce обменивает refresh-токен на новый access-токен и сохраняет его.
// Refresh-токен не трогается: сервер его не ротирует.
func (c *Client) refreshOnce(ctx context.Context) (string, error) {
	const op = "apiclient/refresh"

	lg := log.From(ctx)

	rt, ok, err := c.store.Get(ctx, credentials.KeyRefreshToken)
	if err != nil && ctx.Err() != nil {
		c.metrics.Refresh.WithLabelValues(metrics.RefreshAbandoned).Inc()
		return "", c.abandoned(ctx, op)
	}
	if err != nil {
		lg.Error("refresh_token_read_failed", slog.String("err", err.Error()))
		ok = false
	}

	if !ok || rt == "" {
		c.metrics.Refresh.WithLabelValues(metrics.RefreshMissing).Inc()
		lg.Error("refresh_token_missing")
		return "", fmt.Errorf("%s: %w", op, ErrRefreshTokenMissing)
	}

	lg.Info("refresh_start", slog.String("refresh_token", redact.Token(rt)))

	body, err := json.Marshal(models.RefreshRequest{RefreshToken: rt})
	if err != nil {
		return "", c.refreshFailed(ctx, op, err)
	}

	req := &Request{
		Method:   http.MethodPost,
		Path:     RefreshPath,
		Header:   http.Header{"Content-Type": []string{"application/json"}},
		Body:     body,
		SkipAuth: true,
	}

	resp, err := c.send(ctx, req, credentials.Snapshot{})
	if err != nil {
		// Отмена вызывающего ничего не говорит о refresh-токене.
		if ctx.Err() != nil {
			c.metrics.Refresh.WithLabelValues(metrics.RefreshAbandoned).Inc()
			return "", c.abandoned(ctx, op)
		}
		return "", c.refreshFailed(ctx, op, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", c.refreshFailed(ctx, op, c.statusError(&requestContext{req: req}, resp))
	}

	var out models.RefreshResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return "", c.refreshFailed(ctx, op, err)
	}

	if out.AccessToken == "" {
		return "", c.refreshFailed(ctx, op, errors.New("empty accessToken in refresh response"))
	}

	// Ошибка записи не мешает повтору: новый токен уже на руках.
	if err := c.store.Set(ctx, credentials.KeyAccessToken, out.AccessToken); err != nil {
		lg.Error("access_token_persist_failed", slog.String("err", err.Error()))
	}

	c.metrics.Refresh.WithLabelValues(metrics.RefreshOK).Inc()
	lg.Info("refresh_ok", slog.String("access_token", redact.Token(out.AccessToken)))

	return out.AccessToken, nil
}

func (c *Client) refreshFailed(ctx context.Context, op string, cause error) error {
	c.metrics.Refresh.WithLabelValues(metrics.RefreshFailed).Inc()
	log.From(ctx).Error("refresh_failed", slog.String("err", cause.Error()))

	return fmt.Errorf("%s: %w: %w", op, ErrRefreshFailed, cause)
}

// abandoned — вызывающий ушёл (отмена или свой дедлайн) до конца refresh.
func (c *Client) abandoned(ctx context.Context, op string) error {
	cause := ctx.Err()
	log.From(ctx).Warn("refresh_abandoned", slog.String("err", cause.Error()))

	if errors.Is(cause, context.DeadlineExceeded) {
		c.metrics.Timeouts.Inc()
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, cause)
	}

	return fmt.Errorf("%s: %w", op, cause)
}
