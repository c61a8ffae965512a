package service

import (
	"net/http"
	"strings"

	"taskboard/response"
	"taskboard/util"

	"github.com/gin-gonic/gin"
)

const identityKey = "x-identity"

// AuthRequired verifies the bearer token and injects the actor
// identity into the request context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.HTTPError(c, http.StatusUnauthorized, "authorization header missing", response.Unauthorized)
			c.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			response.HTTPError(c, http.StatusUnauthorized, "bearer prefix missing", response.Unauthorized)
			c.Abort()
			return
		}
		msg, err := util.GetTokenMgr().CheckToken(token)
		if err != nil {
			response.HTTPError(c, http.StatusUnauthorized, "invalid token", response.Unauthorized)
			c.Abort()
			return
		}
		c.Set(identityKey, msg)
		c.Next()
	}
}

// actorFrom returns the identity placed by AuthRequired.
func actorFrom(c *gin.Context) util.JWTMessage {
	v, _ := c.Get(identityKey)
	msg, _ := v.(util.JWTMessage)
	return msg
}
