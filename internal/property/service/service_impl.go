// Package service implements the quota-gated property lookup.
package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/entremotivator/rentalappp1/internal/audit/domain"
	"github.com/entremotivator/rentalappp1/internal/property/domain"
	usagedomain "github.com/entremotivator/rentalappp1/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Client   domain.DataClient
	Repo     domain.Repository
	UsageSvc usagedomain.Service
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	genID    *snowflake.Node
	client   domain.DataClient
	repo     domain.Repository
	usageSvc usagedomain.Service
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &ServiceImpl{
		log:      p.Log.Named("property.service"),
		genID:    p.GenID,
		client:   p.Client,
		repo:     p.Repo,
		usageSvc: p.UsageSvc,
		auditSvc: p.AuditSvc,
	}
}

// Search is the metered lookup. Ordering matters: the gate check happens
// before the provider is touched, and the counter moves only after the
// provider answered successfully. A failed or rejected fetch never costs
// quota.
func (s *ServiceImpl) Search(ctx context.Context, userID, email, address string) (*domain.SearchOutcome, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, domain.ErrNoResults
	}

	allowed, err := s.usageSvc.Allow(ctx, userID, email)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.recordQuotaRejection(ctx, userID, address)
		return nil, usagedomain.ErrQuotaExceeded
	}

	properties, err := s.client.SearchProperties(ctx, address)
	if err != nil {
		return nil, err
	}

	// The provider answered, so the call is spent even when the address
	// matched nothing. Consume can still refuse if a concurrent request
	// exhausted the quota between the gate check and here.
	if _, err := s.usageSvc.Consume(ctx, userID); err != nil {
		s.log.Warn("usage consume failed after successful fetch",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	if len(properties) == 0 {
		return nil, domain.ErrNoResults
	}

	s.saveSearch(ctx, userID, address, properties[0])

	used, err := s.usageSvc.Get(ctx, userID, email)
	if err != nil {
		used = 0
	}
	return &domain.SearchOutcome{
		Properties: properties,
		Used:       used,
		Ceiling:    s.usageSvc.Ceiling(),
	}, nil
}

// Market is an unmetered passthrough to the provider's market statistics.
func (s *ServiceImpl) Market(ctx context.Context, zipCode string) (map[string]any, error) {
	return s.client.MarketData(ctx, strings.TrimSpace(zipCode))
}

func (s *ServiceImpl) History(ctx context.Context, userID string, limit, offset int) ([]domain.SearchRecord, int64, error) {
	return s.repo.List(ctx, userID, limit, offset)
}

func (s *ServiceImpl) FindSearch(ctx context.Context, userID string, id int64) (*domain.SearchRecord, error) {
	return s.repo.Find(ctx, userID, id)
}

func (s *ServiceImpl) FilterHistory(ctx context.Context, userID, term string, limit, offset int) ([]domain.SearchRecord, int64, error) {
	if strings.TrimSpace(term) == "" {
		return s.repo.List(ctx, userID, limit, offset)
	}
	return s.repo.SearchByTerm(ctx, userID, term, limit, offset)
}

func (s *ServiceImpl) DeleteSearch(ctx context.Context, userID string, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *ServiceImpl) ClearHistory(ctx context.Context, userID string) (int64, error) {
	return s.repo.DeleteAll(ctx, userID)
}

func (s *ServiceImpl) HistoryStats(ctx context.Context, userID string) (*domain.Stats, error) {
	return s.repo.Stats(ctx, userID)
}

// saveSearch persists the lookup best-effort. A history write failure must
// not fail a lookup the user already paid quota for.
func (s *ServiceImpl) saveSearch(ctx context.Context, userID, address string, lead domain.Property) {
	data := datatypes.JSONMap(lead.Raw)
	if len(data) == 0 {
		data = datatypes.JSONMap{"formattedAddress": lead.FormattedAddress}
	}
	record := &domain.SearchRecord{
		ID:           s.genID.Generate(),
		UserID:       userID,
		Address:      firstNonEmpty(lead.FormattedAddress, address),
		PropertyType: lead.PropertyType,
		City:         lead.City,
		State:        lead.State,
		PropertyData: data,
	}
	if err := s.repo.Save(ctx, record); err != nil {
		s.log.Warn("saving search history failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func (s *ServiceImpl) recordQuotaRejection(ctx context.Context, userID, address string) {
	s.log.Info("quota rejected property lookup", zap.String("user_id", userID))
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.Record(ctx, auditdomain.Entry{
		ActorType:  auditdomain.ActorTypeUser,
		ActorID:    userID,
		Action:     auditdomain.ActionQuotaRejected,
		TargetType: "property_search",
		TargetID:   address,
	})
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
