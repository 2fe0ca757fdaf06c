// Package service implements purchase verification against the order-query
// collaborator.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/entremotivator/rentalappp1/internal/cache"
	"github.com/entremotivator/rentalappp1/internal/commerce/domain"
	"github.com/entremotivator/rentalappp1/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Verified purchases do not change, so positive verdicts are cached briefly.
// Negative verdicts are never cached: a webhook can arrive seconds after the
// order completes.
const verificationCacheTTL = time.Minute

type Params struct {
	fx.In

	Log    *zap.Logger
	Cfg    config.Config
	Client domain.OrderClient
	Cache  cache.Cache[string, domain.Verification]
}

type Service struct {
	log      *zap.Logger
	client   domain.OrderClient
	cache    cache.Cache[string, domain.Verification]
	targetID string
}

func NewService(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("commerce.service"),
		client:   p.Client,
		cache:    p.Cache,
		targetID: p.Cfg.TargetProductID,
	}
}

// NewVerificationCache provides the cache shared by verification lookups.
func NewVerificationCache() cache.Cache[string, domain.Verification] {
	return cache.NewTTLCache[string, domain.Verification]()
}

// VerifyPurchase scans completed orders for the access-granting product.
// First match wins: any line item whose product id, SKU or variation id
// string-equals the target, on an order billed to the queried email.
func (s *Service) VerifyPurchase(ctx context.Context, email string) domain.Verification {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domain.Verification{Verified: false, Message: "email is required"}
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(email); ok {
			return cached
		}
	}

	orders, err := s.client.ListCompletedOrders(ctx, email)
	if err != nil {
		s.log.Warn("order listing failed", zap.String("email", email), zap.Error(err))
		return domain.Verification{Verified: false, Err: err.Error()}
	}

	for _, order := range orders {
		if !strings.EqualFold(strings.TrimSpace(order.Billing.Email), email) {
			continue
		}
		for _, item := range order.LineItems {
			if !item.Matches(s.targetID) {
				continue
			}
			verification := domain.Verification{
				Verified:  true,
				OrderID:   order.ID,
				OrderDate: order.DateCreated,
				Customer: &domain.Customer{
					Email:     order.Billing.Email,
					FirstName: order.Billing.FirstName,
					LastName:  order.Billing.LastName,
					Phone:     order.Billing.Phone,
					Company:   order.Billing.Company,
				},
			}
			if s.cache != nil {
				s.cache.Set(email, verification, verificationCacheTTL)
			}
			return verification
		}
	}

	return domain.Verification{
		Verified: false,
		Message:  "No completed purchase found for this product",
	}
}

// CustomerByEmail proxies the customer lookup.
func (s *Service) CustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return s.client.CustomerByEmail(ctx, strings.TrimSpace(email))
}
