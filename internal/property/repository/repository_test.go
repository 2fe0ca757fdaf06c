package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/entremotivator/rentalappp1/internal/property/domain"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSearchTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Exec(
		`CREATE TABLE IF NOT EXISTS property_searches (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			address TEXT NOT NULL DEFAULT '',
			property_type TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			property_data TEXT NOT NULL,
			search_date TIMESTAMP NOT NULL
		)`,
	).Error; err != nil {
		t.Fatalf("create property_searches: %v", err)
	}
	return db
}

var testIDNode = func() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}()

func seedSearch(t *testing.T, repo domain.Repository, userID, address, propertyType, city string, searchDate time.Time) *domain.SearchRecord {
	t.Helper()
	record := &domain.SearchRecord{
		ID:           testIDNode.Generate(),
		UserID:       userID,
		Address:      address,
		PropertyType: propertyType,
		City:         city,
		State:        "TX",
		PropertyData: datatypes.JSONMap{"formattedAddress": address},
		SearchDate:   searchDate,
	}
	if err := repo.Save(context.Background(), record); err != nil {
		t.Fatalf("save: %v", err)
	}
	return record
}

func TestListIsScopedAndOrdered(t *testing.T) {
	repo := New(setupSearchTestDB(t))
	now := time.Now().UTC()

	seedSearch(t, repo, "user-1", "1 Old St", "Single Family", "Austin", now.Add(-2*time.Hour))
	newest := seedSearch(t, repo, "user-1", "2 New St", "Condo", "Dallas", now)
	seedSearch(t, repo, "user-2", "3 Other St", "Condo", "Plano", now)

	records, total, err := repo.List(context.Background(), "user-1", 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(records) != 2 {
		t.Fatalf("expected 2 rows for user-1, got total=%d len=%d", total, len(records))
	}
	if records[0].ID != newest.ID {
		t.Fatalf("expected newest first, got %+v", records[0])
	}
}

func TestSearchByTerm(t *testing.T) {
	repo := New(setupSearchTestDB(t))
	now := time.Now().UTC()

	seedSearch(t, repo, "user-1", "500 Congress Ave", "Single Family", "Austin", now)
	seedSearch(t, repo, "user-1", "12 Elm St", "Condo", "Dallas", now)

	records, total, err := repo.SearchByTerm(context.Background(), "user-1", "austin", 20, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 1 || records[0].City != "Austin" {
		t.Fatalf("term filter failed: total=%d records=%+v", total, records)
	}
}

func TestDelete(t *testing.T) {
	repo := New(setupSearchTestDB(t))
	record := seedSearch(t, repo, "user-1", "1 Main St", "Condo", "Austin", time.Now().UTC())

	if err := repo.Delete(context.Background(), "user-2", int64(record.ID)); !errors.Is(err, domain.ErrSearchNotFound) {
		t.Fatalf("cross-user delete must fail with ErrSearchNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "user-1", int64(record.ID)); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Find(context.Background(), "user-1", int64(record.ID)); !errors.Is(err, domain.ErrSearchNotFound) {
		t.Fatalf("expected ErrSearchNotFound after delete, got %v", err)
	}
}

func TestDeleteAll(t *testing.T) {
	repo := New(setupSearchTestDB(t))
	now := time.Now().UTC()
	seedSearch(t, repo, "user-1", "1 Main St", "Condo", "Austin", now)
	seedSearch(t, repo, "user-1", "2 Main St", "Condo", "Austin", now)
	seedSearch(t, repo, "user-2", "3 Main St", "Condo", "Austin", now)

	deleted, err := repo.DeleteAll(context.Background(), "user-1")
	if err != nil || deleted != 2 {
		t.Fatalf("DeleteAll = (%d, %v)", deleted, err)
	}

	_, total, _ := repo.List(context.Background(), "user-2", 20, 0)
	if total != 1 {
		t.Fatalf("other user's history must survive, got %d", total)
	}
}

func TestStats(t *testing.T) {
	repo := New(setupSearchTestDB(t))
	now := time.Now().UTC().Truncate(time.Second)

	seedSearch(t, repo, "user-1", "1 Main St", "Single Family", "Austin", now.Add(-48*time.Hour))
	seedSearch(t, repo, "user-1", "2 Main St", "Single Family", "Austin", now.Add(-24*time.Hour))
	seedSearch(t, repo, "user-1", "3 Main St", "Condo", "Dallas", now)

	stats, err := repo.Stats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalSearches != 3 {
		t.Fatalf("total = %d", stats.TotalSearches)
	}
	if stats.FirstSearch == nil || stats.LastSearch == nil || !stats.LastSearch.After(*stats.FirstSearch) {
		t.Fatalf("bounds = %v .. %v", stats.FirstSearch, stats.LastSearch)
	}
	if len(stats.TopPropertyTypes) == 0 || stats.TopPropertyTypes[0].Value != "Single Family" || stats.TopPropertyTypes[0].Count != 2 {
		t.Fatalf("top types = %+v", stats.TopPropertyTypes)
	}
	if len(stats.TopCities) == 0 || stats.TopCities[0].Value != "Austin" {
		t.Fatalf("top cities = %+v", stats.TopCities)
	}
}

func TestStatsEmptyHistory(t *testing.T) {
	repo := New(setupSearchTestDB(t))

	stats, err := repo.Stats(context.Background(), "user-none")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalSearches != 0 || stats.FirstSearch != nil {
		t.Fatalf("empty stats = %+v", stats)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	repo := New(setupSearchTestDB(t))
	now := time.Now().UTC()

	seedSearch(t, repo, "user-1", "old 1", "Condo", "Austin", now.Add(-72*time.Hour))
	seedSearch(t, repo, "user-1", "old 2", "Condo", "Austin", now.Add(-48*time.Hour))
	seedSearch(t, repo, "user-1", "fresh", "Condo", "Austin", now)

	deleted, err := repo.DeleteOlderThan(context.Background(), now.Add(-24*time.Hour), 1)
	if err != nil || deleted != 1 {
		t.Fatalf("first batch = (%d, %v)", deleted, err)
	}
	deleted, err = repo.DeleteOlderThan(context.Background(), now.Add(-24*time.Hour), 10)
	if err != nil || deleted != 1 {
		t.Fatalf("second batch = (%d, %v)", deleted, err)
	}

	_, total, _ := repo.List(context.Background(), "user-1", 20, 0)
	if total != 1 {
		t.Fatalf("fresh row must survive retention, got %d rows", total)
	}
}

func TestRetentionBacklog(t *testing.T) {
	repo := New(setupSearchTestDB(t))
	now := time.Now().UTC()

	count, oldest, err := repo.RetentionBacklog(context.Background(), now.Add(-24*time.Hour))
	if err != nil || count != 0 || oldest != nil {
		t.Fatalf("empty backlog = (%d, %v, %v)", count, oldest, err)
	}

	first := seedSearch(t, repo, "user-1", "old 1", "Condo", "Austin", now.Add(-72*time.Hour))
	seedSearch(t, repo, "user-2", "old 2", "Condo", "Dallas", now.Add(-48*time.Hour))
	seedSearch(t, repo, "user-1", "fresh", "Condo", "Austin", now)

	count, oldest, err = repo.RetentionBacklog(context.Background(), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("backlog: %v", err)
	}
	if count != 2 {
		t.Fatalf("backlog count = %d, want 2", count)
	}
	if oldest == nil || !oldest.Equal(first.SearchDate) {
		t.Fatalf("oldest = %v, want %v", oldest, first.SearchDate)
	}
}
