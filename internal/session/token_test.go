package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "docverify/pkg/domain-errors"
	"docverify/pkg/requestcontext"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestIssueAndValidate(t *testing.T) {
	svc := NewTokenService(testKey, "docverify", time.Hour)

	token, err := svc.Issue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, token.UserID.String(), claims.UserID)
	assert.Equal(t, token.SessionID.String(), claims.SessionID)
}

func TestIssueMintsDistinctUsers(t *testing.T) {
	svc := NewTokenService(testKey, "docverify", time.Hour)

	a, err := svc.Issue(context.Background())
	require.NoError(t, err)
	b, err := svc.Issue(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, a.UserID, b.UserID)
}

func TestValidateRejects(t *testing.T) {
	svc := NewTokenService(testKey, "docverify", time.Hour)

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		past := requestcontext.WithTime(context.Background(), time.Now().Add(-2*time.Hour))
		token, err := svc.Issue(past)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		require.ErrorContains(t, err, "token expired")
	})

	t.Run("other key", func(t *testing.T) {
		other := NewTokenService("ffffffffffffffffffffffffffffffff", "docverify", time.Hour)
		token, err := other.Issue(context.Background())
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		require.ErrorContains(t, err, "invalid token")
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewTokenService(testKey, "someone-else", time.Hour)
		token, err := other.Issue(context.Background())
		require.NoError(t, err)

		_, err = svc.ValidateToken(token.AccessToken)
		require.Error(t, err)
	})

	t.Run("algorithm confusion", func(t *testing.T) {
		claims := Claims{
			UserID: "00000000-0000-0000-0000-000000000001",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "docverify",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(unsigned)
		require.Error(t, err)
	})
}
