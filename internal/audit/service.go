package audit

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/entremotivator/rentalappp1/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) auditdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
	}
}

// Record inserts one audit row. Sensitive values must be masked by the
// caller before they land in Metadata.
func (s *Service) Record(ctx context.Context, entry auditdomain.Entry) error {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return nil
	}

	row := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(entry.ActorType),
		Action:     action,
		TargetType: entry.TargetType,
		Metadata:   datatypes.JSONMap{},
		CreatedAt:  time.Now().UTC(),
	}
	if entry.ActorID != "" {
		row.ActorID = &entry.ActorID
	}
	if entry.TargetID != "" {
		row.TargetID = &entry.TargetID
	}
	for key, value := range entry.Metadata {
		if strings.TrimSpace(key) == "" {
			continue
		}
		row.Metadata[key] = value
	}

	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Warn("audit record failed", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}
