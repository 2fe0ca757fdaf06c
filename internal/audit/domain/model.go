// Package domain defines the audit trail written for provisioning and
// webhook activity.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered an action.
type ActorType string

const (
	ActorTypeUser    ActorType = "user"
	ActorTypeWebhook ActorType = "webhook"
	ActorTypeSystem  ActorType = "system"
)

// Actions recorded by this service.
const (
	ActionUserProvisioned = "provision.user_created"
	ActionProvisionFailed = "provision.failed"
	ActionWebhookReceived = "webhook.received"
	ActionQuotaRejected   = "quota.rejected"
)

// AuditLog is an immutable record of a provisioning or metering action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	ActorType  string            `gorm:"type:text;not null"`
	ActorID    *string           `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	IPAddress  *string           `gorm:"type:text"`
	UserAgent  *string           `gorm:"type:text"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

// Entry is a single action to record.
type Entry struct {
	ActorType  ActorType
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

// Service records audit entries. Recording is best-effort: callers ignore
// the returned error after logging it.
type Service interface {
	Record(ctx context.Context, entry Entry) error
}
