package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/tenant"
)

// Claims are the token claims the engine cares about. Issuing tokens
// and user management are handled by the surrounding platform.
type Claims struct {
	TenantID tenant.ID `json:"tenant_id"`
	jwt.RegisteredClaims
}

// Auth validates the bearer token and stores the tenant id in context.
// Every engine route is tenant-scoped, so this runs before all of them.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			abortUnauthorized(c, "invalid token")
			return
		}
		if claims.TenantID == 0 {
			abortUnauthorized(c, "token carries no tenant")
			return
		}

		ctx := tenant.WithID(c.Request.Context(), claims.TenantID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	appErr := apperror.NewUnauthorized(msg)
	c.AbortWithStatusJSON(appErr.HTTPStatus, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}
