package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type emailRequest struct {
	Email string `json:"email"`
}

func (r emailRequest) normalized() string {
	return strings.ToLower(strings.TrimSpace(r.Email))
}

// CheckAccess reports whether an email has a qualifying purchase without
// creating anything.
func (s *Server) CheckAccess(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	email := req.normalized()
	if email == "" {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}

	c.JSON(http.StatusOK, s.provisionSvc.CheckAccess(c.Request.Context(), email))
}

// ProvisionUser runs the same verify-then-create flow as the webhook, for
// support tooling and manual onboarding.
func (s *Server) ProvisionUser(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	email := req.normalized()
	if email == "" {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}

	result := s.provisionSvc.Provision(c.Request.Context(), email)
	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, result)
}
