package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetJSON выполняет GET и разбирает ответ в out (nil — тело игнорируется).
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	const op = "apiclient/GetJSON"

	req := &Request{Method: http.MethodGet, Path: path, Query: query}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if out == nil {
		return nil
	}

	if err := resp.DecodeJSON(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// PostJSON отправляет in как JSON и разбирает ответ в out (nil — тело игнорируется).
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	const op = "apiclient/PostJSON"

	req, err := NewJSONRequest(http.MethodPost, path, in)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if out == nil || len(resp.Body) == 0 {
		return nil
	}

	if err := resp.DecodeJSON(out); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
