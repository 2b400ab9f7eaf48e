package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"socialclient/internal/gateway"
	"socialclient/internal/models"
	"socialclient/internal/session"
)

const sessionUserContextKey = "session_user"

// requireSession snapshots the session user into the context, or rejects the request.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := h.sessions.Current()
		if user == nil {
			respondError(c, http.StatusUnauthorized, session.LoginRequired)
			return
		}
		c.Set(sessionUserContextKey, user)
		c.Next()
	}
}

// requireAdmin gates admin screens on the session's admin flag.
// The remote backend re-checks admin_id on every write.
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := UserFromContext(c)
		if !ok || !user.IsAdmin {
			respondError(c, http.StatusForbidden, gateway.AccessDeniedMessage)
			return
		}
		c.Next()
	}
}

// UserFromContext retrieves the session user captured by requireSession.
func UserFromContext(c *gin.Context) (*models.User, bool) {
	val, ok := c.Get(sessionUserContextKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok && user != nil
}

func sessionUser(c *gin.Context) *models.User {
	user, _ := UserFromContext(c)
	return user
}
