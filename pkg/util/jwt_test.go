package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signingKey = "storefront-signing-key"

func issue(t *testing.T, accessTTL, refreshTTL time.Duration) *TokenPair {
	t.Helper()
	pair, err := GenerateTokenPair(7, "admin@shop.test", "admin", signingKey, accessTTL, refreshTTL)
	require.NoError(t, err)
	return pair
}

func TestGenerateTokenPair_TypesAndSubject(t *testing.T) {
	pair := issue(t, 15*time.Minute, 7*24*time.Hour)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	for token, wantType := range map[string]string{
		pair.AccessToken:  TokenTypeAccess,
		pair.RefreshToken: TokenTypeRefresh,
	} {
		claims, err := ValidateToken(token, signingKey)
		require.NoError(t, err)
		assert.Equal(t, wantType, claims.TokenType)
		assert.Equal(t, uint(7), claims.UserID)
		assert.Equal(t, "7", claims.Subject)
		assert.Equal(t, "admin", claims.Role)
		assert.Equal(t, "admin@shop.test", claims.Email)
	}
}

func TestGenerateTokenPair_ExpiryFollowsTTL(t *testing.T) {
	pair := issue(t, 15*time.Minute, 48*time.Hour)

	access, err := ValidateToken(pair.AccessToken, signingKey)
	require.NoError(t, err)
	refresh, err := ValidateToken(pair.RefreshToken, signingKey)
	require.NoError(t, err)

	assert.WithinDuration(t, access.IssuedAt.Add(15*time.Minute), access.ExpiresAt.Time, time.Second)
	assert.WithinDuration(t, refresh.IssuedAt.Add(48*time.Hour), refresh.ExpiresAt.Time, time.Second)
}

func TestValidateToken_Rejections(t *testing.T) {
	pair := issue(t, 15*time.Minute, time.Hour)
	expired := issue(t, -time.Minute, -time.Minute)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:    7,
		Role:      "admin",
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		key     string
		wantErr error
	}{
		{"empty", "", signingKey, ErrInvalidToken},
		{"not a jwt", "abc.def.ghi", signingKey, ErrInvalidToken},
		{"other key", pair.AccessToken, "rotated-key", ErrInvalidToken},
		{"alg none", unsigned, signingKey, ErrInvalidToken},
		{"expired", expired.AccessToken, signingKey, ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ValidateToken(tt.token, tt.key)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}
