// Package domain defines the identity-provider collaborator contract.
package domain

import (
	"context"
	"errors"
)

var (
	ErrCollaboratorUnavailable = errors.New("identity_unavailable")
	ErrEmailExists             = errors.New("email_exists")
	ErrInvalidCredentials      = errors.New("invalid_credentials")
)

// Identity is an account record held by the identity collaborator. The
// metadata blob carries the purchase snapshot copied at provisioning time.
type Identity struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Metadata map[string]any `json:"user_metadata"`
}

// Token is the result of a password sign-in.
type Token struct {
	AccessToken string
	UserID      string
	Email       string
}

// CreateUserRequest registers a new identity. Passwords are generated by the
// credential issuer, returned to the caller exactly once and never stored here.
type CreateUserRequest struct {
	Email    string
	Password string
	Metadata map[string]any
}

// AdminClient is the identity collaborator surface used by provisioning and
// the interactive login flow.
type AdminClient interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*Identity, error)
	ListUsers(ctx context.Context) ([]Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Token, error)
}
