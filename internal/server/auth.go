package server

import (
	"errors"
	"net/http"
	"strings"

	identitydomain "github.com/entremotivator/rentalappp1/internal/identity/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates against the identity collaborator. When the
// credentials are unknown but the email has a qualifying purchase, the
// account is provisioned on the spot and the issued credential is returned
// in place of a session, matching the storefront onboarding flow.
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		AbortWithError(c, newValidationError("email", "required", "email is required"))
		return
	}
	if req.Password == "" {
		AbortWithError(c, newValidationError("password", "required", "password is required"))
		return
	}

	token, err := s.identity.SignInWithPassword(c.Request.Context(), email, req.Password)
	if errors.Is(err, identitydomain.ErrInvalidCredentials) {
		s.loginFallback(c, email)
		return
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}

	sess, err := s.sessions.Create(token.UserID, email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	used, err := s.usageSvc.Get(c.Request.Context(), token.UserID, email)
	if err != nil {
		s.log.Warn("usage lookup failed on login", zap.String("user_id", token.UserID), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "authenticated",
		"token":      sess.Token,
		"expires_at": sess.ExpiresAt,
		"user": gin.H{
			"id":    token.UserID,
			"email": email,
		},
		"queries_used":  used,
		"queries_limit": s.usageSvc.Ceiling(),
	})
}

// loginFallback turns a failed sign-in into a provisioning attempt: a buyer
// who never received credentials gets an account created from their
// purchase instead of a dead-end 401.
func (s *Server) loginFallback(c *gin.Context, email string) {
	result := s.provisionSvc.Provision(c.Request.Context(), email)
	if !result.Success || result.Exists {
		// Either no purchase, or the account exists and the password was
		// simply wrong.
		AbortWithError(c, ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "provisioned",
		"message":  "Account created from your purchase. Sign in with the issued password.",
		"email":    result.Email,
		"password": result.Password,
	})
}

func (s *Server) Logout(c *gin.Context) {
	s.sessions.Revoke(bearerToken(c))
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (s *Server) Me(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    sess.UserID,
			"email": sess.Email,
		},
		"session_expires_at": sess.ExpiresAt,
		"queries_used":       used,
		"queries_limit":      s.usageSvc.Ceiling(),
	})
}
