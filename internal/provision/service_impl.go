package provision

import (
	"context"
	"errors"
	"strings"

	auditdomain "github.com/entremotivator/rentalappp1/internal/audit/domain"
	"github.com/entremotivator/rentalappp1/internal/cms"
	commercedomain "github.com/entremotivator/rentalappp1/internal/commerce/domain"
	"github.com/entremotivator/rentalappp1/internal/identity"
	identitydomain "github.com/entremotivator/rentalappp1/internal/identity/domain"
	usagedomain "github.com/entremotivator/rentalappp1/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Identity    identitydomain.AdminClient
	CommerceSvc commercedomain.Service
	UsageSvc    usagedomain.Service
	CMS         cms.Client
	AuditSvc    auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log         *zap.Logger
	identity    identitydomain.AdminClient
	commerceSvc commercedomain.Service
	usageSvc    usagedomain.Service
	cms         cms.Client
	auditSvc    auditdomain.Service
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:         p.Log.Named("provision.service"),
		identity:    p.Identity,
		commerceSvc: p.CommerceSvc,
		usageSvc:    p.UsageSvc,
		cms:         p.CMS,
		auditSvc:    p.AuditSvc,
	}
}

// Provision runs the full verify-then-create flow. Every collaborator
// failure is converted to a failed Result; no error escapes this boundary.
func (s *ServiceImpl) Provision(ctx context.Context, email string) Result {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return Result{Success: false, Message: "email is required"}
	}

	existing, err := s.findIdentity(ctx, email)
	if err != nil {
		s.log.Warn("identity listing failed", zap.Error(err))
		return Result{Success: false, Message: "Error in user provisioning: " + err.Error()}
	}
	if existing != nil {
		return s.existsResult(ctx, existing, email)
	}

	verification := s.commerceSvc.VerifyPurchase(ctx, email)
	if !verification.Verified {
		message := verification.Message
		if verification.Err != "" || message == "" {
			message = "No valid purchase found for this email"
		}
		return Result{Success: false, Exists: false, Message: message}
	}

	return s.createIdentity(ctx, email, verification)
}

// CheckAccess reports purchase-based access without touching the identity
// collaborator.
func (s *ServiceImpl) CheckAccess(ctx context.Context, email string) AccessStatus {
	verification := s.commerceSvc.VerifyPurchase(ctx, strings.ToLower(strings.TrimSpace(email)))
	if verification.Verified {
		return AccessStatus{
			HasAccess:    true,
			Source:       "woocommerce",
			OrderID:      verification.OrderID,
			PurchaseDate: verification.OrderDate,
		}
	}
	message := verification.Message
	if message == "" {
		message = "No valid purchase found"
	}
	return AccessStatus{HasAccess: false, Message: message}
}

func (s *ServiceImpl) findIdentity(ctx context.Context, email string) (*identitydomain.Identity, error) {
	users, err := s.identity.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(strings.TrimSpace(users[i].Email), email) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// existsResult is the idempotent branch: no password is re-issued, but a
// missing ledger row (partial earlier provisioning) is created here.
func (s *ServiceImpl) existsResult(ctx context.Context, existing *identitydomain.Identity, email string) Result {
	if err := s.usageSvc.Initialize(ctx, existing.ID, email); err != nil {
		s.log.Warn("ledger reconciliation failed",
			zap.String("user_id", existing.ID),
			zap.Error(err),
		)
	}
	return Result{
		Success: true,
		Exists:  true,
		UserID:  existing.ID,
		Email:   email,
		Message: "User already exists",
	}
}

func (s *ServiceImpl) createIdentity(ctx context.Context, email string, verification commercedomain.Verification) Result {
	password, err := identity.GeneratePassword()
	if err != nil {
		return Result{Success: false, Message: "Error creating user: " + err.Error()}
	}

	metadata := map[string]any{
		"woocommerce_verified": true,
		"order_id":             verification.OrderID,
		"purchase_date":        verification.OrderDate,
	}
	if customer := verification.Customer; customer != nil {
		metadata["first_name"] = customer.FirstName
		metadata["last_name"] = customer.LastName
		metadata["phone"] = customer.Phone
		metadata["company"] = customer.Company
	}

	created, err := s.identity.CreateUser(ctx, identitydomain.CreateUserRequest{
		Email:    email,
		Password: password,
		Metadata: metadata,
	})
	if errors.Is(err, identitydomain.ErrEmailExists) {
		// Lost the race against a concurrent provisioning attempt; the
		// collaborator's uniqueness constraint is the backstop.
		existing, findErr := s.findIdentity(ctx, email)
		if findErr == nil && existing != nil {
			return s.existsResult(ctx, existing, email)
		}
		return Result{Success: true, Exists: true, Email: email, Message: "User already exists"}
	}
	if err != nil {
		s.recordAudit(ctx, auditdomain.ActionProvisionFailed, email, map[string]any{"error": err.Error()})
		return Result{Success: false, Message: "Failed to create user: " + err.Error()}
	}

	if err := s.usageSvc.Initialize(ctx, created.ID, email); err != nil {
		// The identity exists, so a re-invocation reconciles this row in
		// the Exists branch.
		s.log.Warn("usage ledger initialization failed",
			zap.String("user_id", created.ID),
			zap.Error(err),
		)
	}

	if _, err := s.cms.EnsureUser(ctx, email, stringField(metadata, "first_name"), stringField(metadata, "last_name")); err != nil {
		s.log.Warn("cms sync failed", zap.String("email", email), zap.Error(err))
	}

	s.recordAudit(ctx, auditdomain.ActionUserProvisioned, email, map[string]any{
		"user_id":  created.ID,
		"order_id": verification.OrderID,
	})

	return Result{
		Success:  true,
		Exists:   false,
		UserID:   created.ID,
		Email:    email,
		Password: password,
		Message:  "User created successfully",
	}
}

func (s *ServiceImpl) recordAudit(ctx context.Context, action, email string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.Record(ctx, auditdomain.Entry{
		ActorType:  auditdomain.ActorTypeSystem,
		Action:     action,
		TargetType: "identity",
		TargetID:   email,
		Metadata:   metadata,
	})
}

func stringField(metadata map[string]any, key string) string {
	value, _ := metadata[key].(string)
	return value
}
