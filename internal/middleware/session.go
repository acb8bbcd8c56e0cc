package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shoyaib4265a/st-shop-poss/internal/apierror"
	"github.com/shoyaib4265a/st-shop-poss/internal/model"
	"github.com/shoyaib4265a/st-shop-poss/internal/store"
)

// SessionKey is the gin context key carrying the resolved local session.
const SessionKey = "session"

// RequireSession gates a route on an approved local session. The session is
// device-local state, not a bearer token: trust in the device itself is
// carried by the credential's devices set, which login already checked.
// An unapproved session (outstanding pending) is rejected the same as none.
func RequireSession(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := st.Session(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, apierror.New("internal server error"))
			return
		}
		if sess == nil || !sess.Approved {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("login required"))
			return
		}
		c.Set(SessionKey, sess)
		c.Next()
	}
}

// RequireRole rejects requests whose session role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		sess, ok := c.MustGet(SessionKey).(*model.Session)
		if !ok || !allowed[sess.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetSession is a helper to retrieve the typed session from the Gin context.
func GetSession(c *gin.Context) *model.Session {
	sess, _ := c.MustGet(SessionKey).(*model.Session)
	return sess
}
