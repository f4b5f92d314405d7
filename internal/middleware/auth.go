package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"stipend/internal/config"
)

const (
	subjectKey = "subject"
	emailKey   = "email"
)

// getJWTKey returns the JWT key shared with the identity provider.
func getJWTKey() []byte {
	return []byte(config.Get().JWTSecret)
}

// IdentityClaims are the claims this service expects in tokens issued by the
// identity provider. Subject carries the provider's stable user id, which is
// mapped onto a Student record on first use.
type IdentityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// SignToken issues a token with the shared secret. Token issuance is the
// identity provider's job in production; this exists for tests and local
// tooling that need to act as the provider.
func SignToken(subject, email string, ttl time.Duration) (string, error) {
	claims := &IdentityClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTKey())
}

// AuthMiddleware verifies the bearer token and sets the authenticated
// subject and email in the context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		claims := &IdentityClaims{}
		token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return getJWTKey(), nil
		})

		if err != nil || !token.Valid || claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(subjectKey, claims.Subject)
		c.Set(emailKey, claims.Email)
		c.Next()
	}
}
