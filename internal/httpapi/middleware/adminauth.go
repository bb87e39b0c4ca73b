package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/shardchat/shardchat/internal/auth"
	"github.com/shardchat/shardchat/internal/common"
)

// AdminAuth gates the db admin surface behind a shared secret. The bearer
// token may be the secret itself or an HS256 JWT signed with it. When a
// bcrypt hash is configured it takes precedence over the plain secret for
// direct comparison; JWTs still verify against the plain secret when set.
func AdminAuth(secret, secretHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" && secretHash == "" {
			common.Error(c, http.StatusForbidden, "admin surface is disabled")
			c.Abort()
			return
		}

		token := bearerToken(c)
		if token == "" {
			common.Error(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}

		if authorized(token, secret, secretHash) {
			c.Next()
			return
		}

		common.Error(c, http.StatusUnauthorized, "invalid admin credentials")
		c.Abort()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

func authorized(token, secret, secretHash string) bool {
	if secretHash != "" && auth.CheckSecret(secretHash, token) {
		return true
	}
	if secret != "" && subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1 {
		return true
	}
	if secret != "" && looksLikeJWT(token) {
		parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		return err == nil && parsed.Valid
	}
	return false
}

func looksLikeJWT(token string) bool {
	return strings.Count(token, ".") == 2
}
