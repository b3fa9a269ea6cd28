package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/daily-briefing/pkg/errors"
)

func newTestService(cfg Config) *service {
	return NewService(cfg, newTestLogger()).(*service)
}

func TestService_IssueAndValidate(t *testing.T) {
	svc := newTestService(Config{Secret: "test-secret", Issuer: "daily-briefing", TokenTTL: time.Hour})

	tok, err := svc.Issue(context.Background(), " ops ")
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	require.Equal(t, "ops", tok.Subject)
	require.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, time.Minute)

	claims, err := svc.ValidateToken(context.Background(), tok.Token)
	require.NoError(t, err)
	require.Equal(t, "ops", claims.Subject)
	require.Equal(t, ScopeOperator, claims.Scope)
	require.NotEmpty(t, claims.ID)
}

func TestService_RejectsBadTokens(t *testing.T) {
	svc := newTestService(Config{Secret: "test-secret", Issuer: "daily-briefing", TokenTTL: time.Hour})

	_, err := svc.ValidateToken(context.Background(), "")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))

	other := newTestService(Config{Secret: "other-secret", Issuer: "daily-briefing", TokenTTL: time.Hour})
	tok, err := other.Issue(context.Background(), "ops")
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), tok.Token)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))

	foreign := newTestService(Config{Secret: "test-secret", Issuer: "someone-else", TokenTTL: time.Hour})
	tok, err = foreign.Issue(context.Background(), "ops")
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), tok.Token)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))

	unscoped, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    "daily-briefing",
		Subject:   "ops",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), unscoped)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
}

func TestService_ExpiredToken(t *testing.T) {
	svc := newTestService(Config{Secret: "test-secret", TokenTTL: time.Minute})
	tok, err := svc.Issue(context.Background(), "ops")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = svc.ValidateToken(context.Background(), tok.Token)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
}

func TestService_IssueValidation(t *testing.T) {
	_, err := newTestService(Config{Secret: "test-secret"}).Issue(context.Background(), "  ")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = newTestService(Config{}).Issue(context.Background(), "ops")
	require.True(t, apperrors.IsCode(err, apperrors.CodeConfiguration))
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}
