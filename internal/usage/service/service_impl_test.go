package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/entremotivator/rentalappp1/internal/config"
	usagedomain "github.com/entremotivator/rentalappp1/internal/usage/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUsageTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS api_usage (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL,
			queries INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	).Error; err != nil {
		t.Fatalf("create api_usage: %v", err)
	}
	return db
}

func newUsageService(t *testing.T, ceiling int) usagedomain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}
	return NewService(Params{
		DB:    setupUsageTestDB(t),
		Log:   zap.NewNop(),
		GenID: node,
		Cfg:   config.Config{QuotaCeiling: ceiling},
	})
}

func TestInitializeIsIdempotent(t *testing.T) {
	svc := newUsageService(t, 30)
	ctx := context.Background()

	if err := svc.Initialize(ctx, "user-1", "a@example.com"); err != nil {
		t.Fatalf("first initialize: %v", err)
	}
	if _, err := svc.Consume(ctx, "user-1"); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if err := svc.Initialize(ctx, "user-1", "a@example.com"); err != nil {
		t.Fatalf("second initialize: %v", err)
	}

	count, err := svc.Get(ctx, "user-1", "a@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if count != 1 {
		t.Fatalf("re-initialize must not reset the count, got %d", count)
	}
}

func TestGetLazilyInitializes(t *testing.T) {
	svc := newUsageService(t, 30)

	count, err := svc.Get(context.Background(), "user-2", "b@example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected fresh record at 0, got %d", count)
	}

	// The row must now exist.
	again, err := svc.Get(context.Background(), "user-2", "b@example.com")
	if err != nil || again != 0 {
		t.Fatalf("second get = (%d, %v)", again, err)
	}
}

func TestConsumeStopsAtCeiling(t *testing.T) {
	svc := newUsageService(t, 3)
	ctx := context.Background()
	if err := svc.Initialize(ctx, "user-3", "c@example.com"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	for i := 0; i < 3; i++ {
		consumed, err := svc.Consume(ctx, "user-3")
		if err != nil || !consumed {
			t.Fatalf("consume %d = (%v, %v)", i, consumed, err)
		}
	}

	consumed, err := svc.Consume(ctx, "user-3")
	if err != nil {
		t.Fatalf("consume past ceiling: %v", err)
	}
	if consumed {
		t.Fatalf("consume must refuse once the ceiling is reached")
	}

	count, _ := svc.Get(ctx, "user-3", "c@example.com")
	if count != 3 {
		t.Fatalf("count must be capped at ceiling, got %d", count)
	}
}

func TestAllowReflectsCeiling(t *testing.T) {
	svc := newUsageService(t, 1)
	ctx := context.Background()

	ok, err := svc.Allow(ctx, "user-4", "d@example.com")
	if err != nil || !ok {
		t.Fatalf("allow fresh user = (%v, %v)", ok, err)
	}

	if _, err := svc.Consume(ctx, "user-4"); err != nil {
		t.Fatalf("consume: %v", err)
	}

	ok, err = svc.Allow(ctx, "user-4", "d@example.com")
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if ok {
		t.Fatalf("allow must reject at ceiling")
	}
}
