// Package provision composes purchase verification, credential issuance and
// usage-ledger initialization into one idempotent operation.
package provision

import "context"

// Result is the provisioning outcome returned to webhook and interactive
// callers. Password is only set when a brand-new identity was created; it is
// the single time the credential is available in cleartext.
type Result struct {
	Success  bool   `json:"success"`
	Exists   bool   `json:"exists"`
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Message  string `json:"message,omitempty"`
}

// AccessStatus reports whether an email has a qualifying purchase.
type AccessStatus struct {
	HasAccess    bool   `json:"has_access"`
	Source       string `json:"source,omitempty"`
	OrderID      int64  `json:"order_id,omitempty"`
	PurchaseDate string `json:"purchase_date,omitempty"`
	Message      string `json:"message,omitempty"`
}

// Service is the provisioning orchestrator.
//
// Provision is safe to invoke repeatedly for the same email: once an identity
// exists the call lands in the Exists branch, which also reconciles a missing
// usage ledger row instead of assuming a complete earlier run.
type Service interface {
	Provision(ctx context.Context, email string) Result
	CheckAccess(ctx context.Context, email string) AccessStatus
}
