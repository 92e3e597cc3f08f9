package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/shopfront-backend/internal/capability"
	apperrors "github.com/ikkim/shopfront-backend/internal/errors"
	"github.com/ikkim/shopfront-backend/pkg/util"
)

// Context keys for caller information
const (
	IdentityKey    = "identity"
	UserEmailKey   = "user_email"
	AccessTokenKey = "access_token"
)

// TokenChecker reports revoked access tokens (pkg/redis.Client).
type TokenChecker interface {
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
}

type AuthMiddleware struct {
	jwtSecret string
	blacklist TokenChecker
}

// NewAuthMiddleware builds the JWT middleware. blacklist may be nil.
func NewAuthMiddleware(jwtSecret string, blacklist TokenChecker) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret: jwtSecret,
		blacklist: blacklist,
	}
}

// Authenticate validates JWT token (required)
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing authorization header", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.Unauthorized(c, "로그인이 필요합니다")
			c.Abort()
			return
		}

		token, ok := bearerToken(authHeader)
		if !ok {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "인증 형식이 올바르지 않습니다")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err == nil && claims.TokenType != util.TokenTypeAccess {
			err = util.ErrInvalidToken
		}
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})

			// 토큰 만료 에러인 경우 명확히 표시
			if errors.Is(err, util.ErrExpiredToken) {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "로그인이 만료되었습니다")
			} else {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "유효하지 않은 인증 토큰입니다")
			}
			c.Abort()
			return
		}

		if m.blacklist != nil {
			revoked, err := m.blacklist.IsTokenBlacklisted(c.Request.Context(), token)
			if err != nil {
				log.Error("Failed to check token blacklist", err, map[string]interface{}{
					"user_id": claims.UserID,
				})
				apperrors.Respond(c, apperrors.ErrStore)
				c.Abort()
				return
			}
			if revoked {
				log.Warn("Revoked token used", map[string]interface{}{
					"user_id": claims.UserID,
				})
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "로그아웃된 토큰입니다")
				c.Abort()
				return
			}
		}

		setCaller(c, claims, token)
		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})

		c.Next()
	}
}

// OptionalAuthenticate validates JWT token if present (optional)
// - If token is present and valid: sets caller in context
// - Otherwise the request continues as anonymous
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		claims, err := util.ValidateToken(token, m.jwtSecret)
		if err != nil || claims.TokenType != util.TokenTypeAccess {
			log.Debug("Token validation failed - continuing as guest", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			c.Next()
			return
		}
		if m.blacklist != nil {
			if revoked, err := m.blacklist.IsTokenBlacklisted(c.Request.Context(), token); err != nil || revoked {
				c.Next()
				return
			}
		}

		setCaller(c, claims, token)
		c.Next()
	}
}

// RequireRole checks if the caller has one of roles. Failures are 401 like every
// other authorization failure in this API.
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		caller := GetIdentity(c)
		if caller.IsAnonymous() {
			log.Warn("Role information not found in context", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthzRoleNotFound, "권한 정보를 찾을 수 없습니다")
			c.Abort()
			return
		}

		for _, r := range roles {
			if caller.Role == r {
				c.Next()
				return
			}
		}

		log.Warn("Insufficient permissions", map[string]interface{}{
			"user_id":        caller.UserID,
			"user_role":      caller.Role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthzForbidden, "접근 권한이 없습니다")
		c.Abort()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setCaller(c *gin.Context, claims *util.Claims, token string) {
	c.Set(IdentityKey, capability.Identity{UserID: claims.UserID, Role: claims.Role})
	c.Set(UserEmailKey, claims.Email)
	c.Set(AccessTokenKey, token)
}

// GetIdentity returns the resolved caller, or the anonymous identity.
func GetIdentity(c *gin.Context) capability.Identity {
	if v, exists := c.Get(IdentityKey); exists {
		if id, ok := v.(capability.Identity); ok {
			return id
		}
	}
	return capability.Anonymous()
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	caller := GetIdentity(c)
	return caller.UserID, !caller.IsAnonymous()
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	return email.(string), true
}

// GetAccessToken returns the bearer token of an authenticated request.
func GetAccessToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}
