// Package service implements the usage ledger on the relational store.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/entremotivator/rentalappp1/internal/config"
	usagedomain "github.com/entremotivator/rentalappp1/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Cfg   config.Config
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	ceiling int
}

func NewService(p Params) usagedomain.Service {
	ceiling := p.Cfg.QuotaCeiling
	if ceiling <= 0 {
		ceiling = 30
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("usage.service"),
		genID:   p.GenID,
		ceiling: ceiling,
	}
}

func (s *Service) Ceiling() int { return s.ceiling }

// Initialize creates the ledger row at count 0. ON CONFLICT DO NOTHING makes
// re-provisioning and concurrent webhook deliveries safe.
func (s *Service) Initialize(ctx context.Context, userID, email string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return usagedomain.ErrInvalidUser
	}

	now := time.Now().UTC()
	return s.db.WithContext(ctx).Exec(
		`INSERT INTO api_usage (id, user_id, email, queries, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)
		 ON CONFLICT (user_id) DO NOTHING`,
		s.genID.Generate(),
		userID,
		strings.ToLower(strings.TrimSpace(email)),
		now,
		now,
	).Error
}

// Get returns the current count, creating the row lazily when missing.
func (s *Service) Get(ctx context.Context, userID, email string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, usagedomain.ErrInvalidUser
	}

	var record usagedomain.UsageRecord
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.Initialize(ctx, userID, email); err != nil {
			return 0, err
		}
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return record.Queries, nil
}

// Allow is the quota gate read: callers reject before any external fetch
// when it returns false.
func (s *Service) Allow(ctx context.Context, userID, email string) (bool, error) {
	count, err := s.Get(ctx, userID, email)
	if err != nil {
		return false, err
	}
	return count < s.ceiling, nil
}

// Consume increments the count by exactly one, only while below the ceiling.
// The conditional UPDATE is atomic per row, so concurrent successful fetches
// cannot lose updates or push the count past the ceiling.
func (s *Service) Consume(ctx context.Context, userID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, usagedomain.ErrInvalidUser
	}

	result := s.db.WithContext(ctx).Exec(
		`UPDATE api_usage
		 SET queries = queries + 1, updated_at = ?
		 WHERE user_id = ? AND queries < ?`,
		time.Now().UTC(),
		userID,
		s.ceiling,
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		s.log.Warn("usage consume rejected at ceiling", zap.String("user_id", userID))
		return false, nil
	}
	return true, nil
}
