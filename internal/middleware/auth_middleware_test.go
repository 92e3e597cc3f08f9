package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/pkg/logger"
	"github.com/ikkim/shopfront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

type stubBlacklist struct {
	revoked map[string]bool
	err     error
}

func (s *stubBlacklist) IsTokenBlacklisted(_ context.Context, token string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.revoked[token], nil
}

func setupMiddlewareTest(blacklist TokenChecker) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	return router, NewAuthMiddleware(testJWTSecret, blacklist)
}

func generateTokens(t *testing.T, userID uint, email, role string) *util.TokenPair {
	t.Helper()
	tokens, err := util.GenerateTokenPair(
		userID,
		email,
		role,
		testJWTSecret,
		15*time.Minute,
		7*24*time.Hour,
	)
	require.NoError(t, err)
	return tokens
}

func doRequest(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	return body.Error
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)
	tokens := generateTokens(t, 7, "test@example.com", "user")

	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		caller := GetIdentity(c)
		email, _ := GetUserEmail(c)
		c.JSON(http.StatusOK, gin.H{
			"user_id": caller.UserID,
			"role":    caller.Role,
			"email":   email,
			"token":   GetAccessToken(c),
		})
	})

	w := doRequest(router, tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(7), body["user_id"])
	assert.Equal(t, "user", body["role"])
	assert.Equal(t, "test@example.com", body["email"])
	assert.Equal(t, tokens.AccessToken, body["token"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestAuthMiddleware_Authenticate_Rejections(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)
	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})
	tokens := generateTokens(t, 1, "test@example.com", "user")

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"No token", "", apperrors.AuthUnauthorized},
		{"Invalid format", "Token abc", apperrors.AuthTokenInvalid},
		{"Invalid token", "Bearer not-a-jwt", apperrors.AuthTokenInvalid},
		{"Refresh token", "Bearer " + tokens.RefreshToken, apperrors.AuthTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestAuthMiddleware_Authenticate_Expired(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)
	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	tokens, err := util.GenerateTokenPair(1, "test@example.com", "user", testJWTSecret, -time.Minute, time.Hour)
	require.NoError(t, err)

	w := doRequest(router, tokens.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthTokenExpired, errorCode(t, w))
}

func TestAuthMiddleware_Authenticate_Blacklist(t *testing.T) {
	tokens := generateTokens(t, 1, "test@example.com", "user")

	router, authMiddleware := setupMiddlewareTest(&stubBlacklist{revoked: map[string]bool{tokens.AccessToken: true}})
	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := doRequest(router, tokens.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	router, authMiddleware = setupMiddlewareTest(&stubBlacklist{err: errors.New("redis down")})
	router.GET("/test", authMiddleware.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w = doRequest(router, tokens.AccessToken)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthMiddleware_OptionalAuthenticate(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)
	router.GET("/test", authMiddleware.OptionalAuthenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"anonymous": GetIdentity(c).IsAnonymous()})
	})
	tokens := generateTokens(t, 3, "opt@example.com", "user")

	tests := []struct {
		name      string
		token     string
		anonymous bool
	}{
		{"Guest", "", true},
		{"Garbage token", "garbage", true},
		{"Valid token", tokens.AccessToken, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.token)
			require.Equal(t, http.StatusOK, w.Code)
			var body map[string]bool
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.anonymous, body["anonymous"])
		})
	}
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)
	router.GET("/test", authMiddleware.Authenticate(), authMiddleware.RequireRole("admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	tests := []struct {
		name string
		role string
		want int
	}{
		{"Admin passes", "admin", http.StatusOK},
		{"User is rejected with 401", "user", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := generateTokens(t, 1, "test@example.com", tt.role)
			w := doRequest(router, tokens.AccessToken)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthMiddleware_RequireRole_WithoutAuthenticate(t *testing.T) {
	router, authMiddleware := setupMiddlewareTest(nil)
	router.GET("/test", authMiddleware.RequireRole("admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doRequest(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.AuthzRoleNotFound, errorCode(t, w))
}

func TestLoggingMiddleware_LoggerInRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"same": logger.From(c.Request.Context()) == GetLoggerFromContext(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"same":true}`, w.Body.String())
}
