// log хранит request-scoped *slog.Logger в context.Context.
// Клиентский пайплайн кладёт сюда логгер, обогащённый request_id,
// чтобы refresh и повторная отправка писали в тот же контекст логов.
package log

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if v := ctx.Value(ctxKey{}); v != nil {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}

	return slog.Default()
}

// With дополняет логгер из контекста атрибутами и возвращает новый контекст
// вместе с обогащённым логгером.
func With(ctx context.Context, attrs ...any) (context.Context, *slog.Logger) {
	l := From(ctx).With(attrs...)
	return Into(ctx, l), l
}
