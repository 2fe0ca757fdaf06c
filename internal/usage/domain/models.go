// Package domain contains the metered-usage ledger model and contract.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrQuotaExceeded = errors.New("quota_exceeded")
	ErrInvalidUser   = errors.New("invalid_user")
)

// UsageRecord counts metered property lookups per identity. One row per
// user; the count only moves forward and is capped at the quota ceiling by
// the conditional increment in the service.
type UsageRecord struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"-"`
	UserID    string       `gorm:"type:text;not null;uniqueIndex" json:"user_id"`
	Email     string       `gorm:"type:text;not null" json:"email"`
	Queries   int          `gorm:"not null;default:0" json:"queries"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"-"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "api_usage" }

// Service is the usage ledger plus quota gate primitives.
//
// Consume is the single atomic "increment if below ceiling" operation: it
// never lets the stored count exceed the ceiling, even under concurrent
// requests, because the increment and the bound check are one UPDATE.
type Service interface {
	// Initialize creates the ledger row with a zero count. Idempotent.
	Initialize(ctx context.Context, userID, email string) error
	// Get returns the current count, lazily creating the row when absent.
	Get(ctx context.Context, userID, email string) (int, error)
	// Allow reports whether a gated call may proceed (count below ceiling).
	Allow(ctx context.Context, userID, email string) (bool, error)
	// Consume records one successful metered call. Returns false when the
	// ceiling had already been reached.
	Consume(ctx context.Context, userID string) (bool, error)
	// Ceiling returns the configured quota ceiling.
	Ceiling() int
}
