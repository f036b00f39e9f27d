package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	impl "github.com/avatarctic/newsletter-saas/internal/application/services"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := impl.NewTokenService("secret")
	uid := uuid.New()
	tok, err := svc.IssueToken(uid, "ann@example.com", time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(context.Background(), tok)
	require.NoError(t, err)
	require.Equal(t, uid, claims.UserID)
	require.Equal(t, "ann@example.com", claims.Email)
}

func TestTokenService_RejectsWrongSecretAndExpired(t *testing.T) {
	tok, err := impl.NewTokenService("other").IssueToken(uuid.New(), "", time.Hour)
	require.NoError(t, err)
	_, err = impl.NewTokenService("secret").ValidateToken(context.Background(), tok)
	require.Error(t, err)

	svc := impl.NewTokenService("secret")
	expired, err := svc.IssueToken(uuid.New(), "", -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), expired)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenService_RequiresUserID(t *testing.T) {
	svc := impl.NewTokenService("secret")
	tok, err := svc.IssueToken(uuid.Nil, "", time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), tok)
	require.Error(t, err)
}

func TestTokenService_RejectsNoneAlg(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": uuid.NewString()}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = impl.NewTokenService("secret").ValidateToken(context.Background(), tok)
	require.Error(t, err)
}
