// Package repository persists saved property searches.
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/entremotivator/rentalappp1/internal/property/domain"
	"gorm.io/gorm"
)

const maxFacets = 5

type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(ctx context.Context, record *domain.SearchRecord) error {
	if record.SearchDate.IsZero() {
		record.SearchDate = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *Repository) Find(ctx context.Context, userID string, id int64) (*domain.SearchRecord, error) {
	var record domain.SearchRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSearchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *Repository) List(ctx context.Context, userID string, limit, offset int) ([]domain.SearchRecord, int64, error) {
	return r.page(r.scoped(ctx, userID), limit, offset)
}

// SearchByTerm filters a user's history with a case-insensitive substring
// match across the denormalized address facets.
func (r *Repository) SearchByTerm(ctx context.Context, userID, term string, limit, offset int) ([]domain.SearchRecord, int64, error) {
	pattern := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
	query := r.scoped(ctx, userID).Where(
		"LOWER(address) LIKE ? OR LOWER(city) LIKE ? OR LOWER(state) LIKE ? OR LOWER(property_type) LIKE ?",
		pattern, pattern, pattern, pattern,
	)
	return r.page(query, limit, offset)
}

func (r *Repository) Delete(ctx context.Context, userID string, id int64) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&domain.SearchRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSearchNotFound
	}
	return nil
}

func (r *Repository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&domain.SearchRecord{})
	return result.RowsAffected, result.Error
}

func (r *Repository) Stats(ctx context.Context, userID string) (*domain.Stats, error) {
	stats := &domain.Stats{
		TopPropertyTypes: []domain.FacetCount{},
		TopCities:        []domain.FacetCount{},
	}

	var total int64
	if err := r.scoped(ctx, userID).Count(&total).Error; err != nil {
		return nil, err
	}
	stats.TotalSearches = total
	if total == 0 {
		return stats, nil
	}

	var oldest, newest domain.SearchRecord
	if err := r.scoped(ctx, userID).Order("search_date ASC").Take(&oldest).Error; err != nil {
		return nil, err
	}
	if err := r.scoped(ctx, userID).Order("search_date DESC").Take(&newest).Error; err != nil {
		return nil, err
	}
	stats.FirstSearch = &oldest.SearchDate
	stats.LastSearch = &newest.SearchDate

	var err error

	if stats.TopPropertyTypes, err = r.facet(ctx, userID, "property_type"); err != nil {
		return nil, err
	}
	if stats.TopCities, err = r.facet(ctx, userID, "city"); err != nil {
		return nil, err
	}
	return stats, nil
}

// DeleteOlderThan removes at most batchSize rows whose search date precedes
// the cutoff. The retention worker calls it repeatedly until it reports zero.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	result := r.db.WithContext(ctx).Exec(
		`DELETE FROM property_searches
		 WHERE id IN (
		     SELECT id FROM property_searches
		     WHERE search_date < ?
		     ORDER BY search_date
		     LIMIT ?
		 )`,
		cutoff,
		batchSize,
	)
	return result.RowsAffected, result.Error
}

// RetentionBacklog reports how many rows precede the cutoff and the search
// date of the oldest row overall. The retention worker publishes both as
// gauges before each run.
func (r *Repository) RetentionBacklog(ctx context.Context, cutoff time.Time) (int64, *time.Time, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.SearchRecord{}).
		Where("search_date < ?", cutoff).
		Count(&count).Error
	if err != nil {
		return 0, nil, err
	}

	var oldest domain.SearchRecord
	err = r.db.WithContext(ctx).
		Model(&domain.SearchRecord{}).
		Order("search_date ASC").
		Take(&oldest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return count, nil, nil
	}
	if err != nil {
		return count, nil, err
	}
	return count, &oldest.SearchDate, nil
}

func (r *Repository) scoped(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&domain.SearchRecord{}).
		Where("user_id = ?", userID)
}

func (r *Repository) page(query *gorm.DB, limit, offset int) ([]domain.SearchRecord, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []domain.SearchRecord
	err := query.
		Order("search_date DESC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	return records, total, err
}

func (r *Repository) facet(ctx context.Context, userID, column string) ([]domain.FacetCount, error) {
	var counts []domain.FacetCount
	err := r.scoped(ctx, userID).
		Select(column+" AS value, COUNT(*) AS count").
		Where(column+" <> ''").
		Group(column).
		Order("count DESC").
		Limit(maxFacets).
		Scan(&counts).Error
	return counts, err
}
