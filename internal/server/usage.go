package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Usage reports the caller's quota position.
func (s *Server) Usage(c *gin.Context) {
	sess, ok := s.sessionFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	used, err := s.usageSvc.Get(c.Request.Context(), sess.UserID, sess.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	ceiling := s.usageSvc.Ceiling()
	remaining := ceiling - used
	if remaining < 0 {
		remaining = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"queries_used":  used,
		"queries_limit": ceiling,
		"remaining":     remaining,
	})
}
