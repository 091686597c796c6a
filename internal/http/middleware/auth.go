// This file implements bearer-token authentication backed by HMAC-signed
// JWTs. The middleware validates the Authorization header, extracts the
// caller's identity and role from the token claims, and stores a resolved
// Principal in the Gin context for downstream handlers.
//
// Claims:
//   - sub:  user/profile ID (required)
//   - role: "user", "collaborator", or "admin" (defaults to "user")
//   - pro:  boolean collaborator tier flag
//
// Notes:
//   - Only the HS256 signing method is accepted; tokens signed with any other
//     algorithm are rejected to prevent algorithm-confusion attacks.
//   - The middleware also sets "userID" in the context so the rate limiter can
//     key buckets by user instead of IP.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yahora/yahora-backend/internal/services"
)

// ctxKeyPrincipal is the Gin context key under which the authenticated
// Principal is stored.
const ctxKeyPrincipal = "principal"

// Auth returns a Gin middleware that requires a valid "Authorization: Bearer"
// JWT signed with secret. On success the resolved Principal is available via
// PrincipalFrom; on failure the request is aborted with 401 and a compact
// JSON body.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearer := c.GetHeader("Authorization")
		if !strings.HasPrefix(bearer, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		token, err := jwt.Parse(bearer[7:], func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, "invalid token")
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			abortUnauthorized(c, "invalid token")
			return
		}
		role, _ := claims["role"].(string)
		if role == "" {
			role = "user"
		}
		pro, _ := claims["pro"].(bool)

		c.Set(ctxKeyPrincipal, services.Principal{ID: sub, Role: role, Pro: pro})
		c.Set("userID", sub)
		c.Next()
	}
}

// PrincipalFrom returns the Principal stored by Auth, or ok=false when the
// request was not authenticated.
func PrincipalFrom(c *gin.Context) (services.Principal, bool) {
	v, exists := c.Get(ctxKeyPrincipal)
	if !exists {
		return services.Principal{}, false
	}
	p, ok := v.(services.Principal)
	return p, ok
}

// MintToken issues an HS256 JWT for the given identity. Exposed for tests and
// local tooling; production tokens come from the identity provider.
func MintToken(secret []byte, userID, role string, pro bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"pro":  pro,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
