package middlewares

import (
	"context"
	"net/http"
	"strings"

	"bitbucket.org/nusalink/ispbilling_backend/models"
	"bitbucket.org/nusalink/ispbilling_backend/utils"
	"github.com/gin-gonic/gin"
)

type authString string

const authKey = authString("auth")

// AuthMiddleware rejects requests without a valid bearer token and places
// the parsed claims on the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, _ := validate.Claims.(*utils.JwtCustomClaim)

		ctx := context.WithValue(c.Request.Context(), authKey, customClaim)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminOnly gates mutating operations that are reserved for admins; runs
// after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		claim := CtxValue(c.Request.Context())
		if claim == nil || claim.Role != string(models.UserRoleAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func CtxValue(ctx context.Context) *utils.JwtCustomClaim {
	raw, _ := ctx.Value(authKey).(*utils.JwtCustomClaim)
	return raw
}
