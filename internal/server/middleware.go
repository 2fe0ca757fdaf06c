package server

import (
	"strings"

	"github.com/entremotivator/rentalappp1/internal/session"
	"github.com/gin-gonic/gin"
)

const (
	contextSessionKey = "session"
	contextUserIDKey  = "user_id"
	contextEmailKey   = "email"
)

// SessionRequired resolves the bearer token into a session and stores the
// caller identity on the gin context.
func (s *Server) SessionRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		sess, err := s.sessions.Resolve(token)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextSessionKey, sess)
		c.Set(contextUserIDKey, sess.UserID)
		c.Set(contextEmailKey, sess.Email)
		c.Next()
	}
}

func (s *Server) sessionFromContext(c *gin.Context) (session.Session, bool) {
	value, ok := c.Get(contextSessionKey)
	if !ok {
		return session.Session{}, false
	}
	sess, ok := value.(session.Session)
	return sess, ok
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
