package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pribylovaa/simpa-client/internal/apiclient"
	"github.com/pribylovaa/simpa-client/internal/credentials"
	"github.com/pribylovaa/simpa-client/internal/models"
	"github.com/pribylovaa/simpa-client/internal/pkg/log"
)

// LoginPath — эндпойнт входа.
const LoginPath = "/auth/login"

// Session — состояние сессии, по которому выбирается стартовый экран.
type Session struct {
	LoggedIn bool
	User     *models.User
	// ExpiresAt — срок access-токена из JWT (нулевой, если токен не JWT).
	ExpiresAt time.Time
}

// Expired сообщает, что access-токен уже истёк. Истёкший токен не мешает
// работе: пайплайн обновит его при первом 401.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Login выполняет вход. Запрос уходит без Bearer и без перехвата 401.
// Токены сохраняются, только если ответ содержит оба токена и роль
// пользователя разрешена.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	const op = "service/Login"

	lg := log.From(ctx)

	req, err := apiclient.NewJSONRequest(http.MethodPost, LoginPath, models.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.SkipAuth = true

	resp, err := s.api.Do(ctx, req)
	if err != nil {
		if code, ok := apiclient.StatusCode(err); ok && (code == http.StatusUnauthorized || code == http.StatusBadRequest) {
			lg.Warn("login_rejected", slog.String("username", username), slog.Int("status", code))
			return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidCredentials, err)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var out models.LoginResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if out.AccessToken == "" || out.RefreshToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrTokensMissing)
	}

	if out.User == nil || out.User.Role != s.allowedRole {
		role := ""
		if out.User != nil {
			role = out.User.Role
		}
		lg.Warn("login_role_rejected", slog.String("username", username), slog.String("role", role))
		return nil, fmt.Errorf("%s: %w: %q", op, ErrRoleNotAllowed, role)
	}

	userData, err := json.Marshal(out.User)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, kv := range [...]struct{ key, value string }{
		{credentials.KeyAccessToken, out.AccessToken},
		{credentials.KeyRefreshToken, out.RefreshToken},
		{credentials.KeyUserData, string(userData)},
	} {
		if err := s.store.Set(ctx, kv.key, kv.value); err != nil {
			return nil, fmt.Errorf("%s: persist %s: %w", op, kv.key, err)
		}
	}

	lg.Info("login_ok", slog.String("username", username), slog.Int("user_id", out.User.ID))

	return out.User, nil
}

// Logout удаляет все ключи сессии из хранилища.
func (s *Service) Logout(ctx context.Context) error {
	const op = "service/Logout"

	if err := credentials.Clear(ctx, s.store); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("logout_ok")

	return nil
}

// Session читает состояние сессии. Наличие access-токена означает вход;
// пользователь и срок токена заполняются, если их удаётся разобрать.
func (s *Service) Session(ctx context.Context) (*Session, error) {
	const op = "service/Session"

	tok, ok, err := s.store.Get(ctx, credentials.KeyAccessToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !ok || tok == "" {
		return &Session{}, nil
	}

	sess := &Session{LoggedIn: true, ExpiresAt: tokenExpiry(tok)}

	raw, ok, err := s.store.Get(ctx, credentials.KeyUserData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ok {
		var u models.User
		if err := json.Unmarshal([]byte(raw), &u); err == nil {
			sess.User = &u
		} else {
			log.From(ctx).Warn("user_data_corrupted", slog.String("err", err.Error()))
		}
	}

	return sess, nil
}

// CurrentUser возвращает сохранённого пользователя или ErrNotLoggedIn.
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	const op = "service/CurrentUser"

	sess, err := s.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !sess.LoggedIn || sess.User == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNotLoggedIn)
	}

	return sess.User, nil
}

// tokenExpiry читает exp из JWT без проверки подписи: ключа у клиента нет,
// значение нужно только для отображения.
func tokenExpiry(tok string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}

	return exp.Time
}
