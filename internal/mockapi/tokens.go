package mockapi

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "simpa-mockapi"

type accessClaims struct {
	UserID   int    `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type refreshSession struct {
	username  string
	expiresAt time.Time
}

func (s *Server) issueAccessToken(u *user) (string, error) {
	const op = "mockapi/issueAccessToken"

	now := s.now()
	claims := accessClaims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   u.Username,
			// Уникальность токена при выпуске в одну секунду.
			ID: uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

func (s *Server) parseAccessToken(raw string) (*accessClaims, error) {
	const op = "mockapi/parseAccessToken"

	token, err := jwt.ParseWithClaims(raw, &accessClaims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid claims", op)
	}

	return claims, nil
}

// issueRefreshToken выдаёт непрозрачный refresh-токен. Ротации нет:
// токен живёт до истечения RefreshTTL или RevokeRefreshTokens.
func (s *Server) issueRefreshToken(username string) string {
	tok := uuid.NewString()

	s.mu.Lock()
	s.refresh[tok] = refreshSession{username: username, expiresAt: s.now().Add(s.refreshTTL)}
	s.mu.Unlock()

	return tok
}

func (s *Server) lookupRefresh(tok string) (*user, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.refresh[tok]
	if !ok || !s.now().Before(sess.expiresAt) {
		return nil, false
	}

	u, ok := s.users[sess.username]
	return u, ok
}
