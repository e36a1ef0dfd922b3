package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aleksv/spendsync/internal/common"
)

// userIDKey is the gin context key the auth middleware stores the caller's
// user id under.
const userIDKey = "userID"

// authRequired validates the bearer token and injects the user id into the
// request context. Requests without a valid access token are rejected with
// 401 so the client can run its refresh flow.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AccessTokenHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(header, common.BearerPrefix)

		userID, err := s.users.UserIDFromAccessToken(token)
		if err != nil {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
