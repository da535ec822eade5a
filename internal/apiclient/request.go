package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Request — описание одного логического вызова API.
//
// Body хранится байтами, чтобы запрос можно было отправить повторно после
// обновления токена. Path — относительный путь от базового URL либо
// абсолютный URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte

	// SkipAuth — не подставлять Bearer и не обрабатывать 401 (вход, refresh).
	SkipAuth bool
}

// NewJSONRequest сериализует body в JSON (nil — без тела).
func NewJSONRequest(method, path string, body any) (*Request, error) {
	const op = "apiclient/NewJSONRequest"

	req := &Request{Method: method, Path: path, Header: make(http.Header)}
	if body == nil {
		return req, nil
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req.Body = raw
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

func (r *Request) clone() *Request {
	out := *r
	out.Header = r.Header.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}

	if r.Query != nil {
		out.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			out.Query[k] = append([]string(nil), v...)
		}
	}

	if r.Body != nil {
		out.Body = append([]byte(nil), r.Body...)
	}

	return &out
}

// requestContext — один вызов в полёте: собственная копия Request и
// одноразовый маркер повтора. Маркер выставляется только через markRetried
// и никогда не сбрасывается; повторная отправка всегда создаётся уже
// помеченной.
type requestContext struct {
	req     *Request
	retried bool
}

func newRequestContext(req *Request) *requestContext {
	return &requestContext{req: req.clone()}
}

func (rc *requestContext) markRetried() { rc.retried = true }

// resubmission клонирует контекст с новым заголовком Authorization.
func (rc *requestContext) resubmission(accessToken string) *requestContext {
	req := rc.req.clone()
	req.Header.Set("Authorization", "Bearer "+accessToken)

	return &requestContext{req: req, retried: true}
}

// Response — полностью вычитанный ответ.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON разбирает тело ответа в v.
func (r *Response) DecodeJSON(v any) error {
	const op = "apiclient/Response.DecodeJSON"

	if len(r.Body) == 0 {
		return fmt.Errorf("%s: empty body", op)
	}

	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
