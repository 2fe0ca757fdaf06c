package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   s.cfg.ServiceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
