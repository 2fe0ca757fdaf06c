// Package domain contains the property search models and contracts.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var (
	ErrCollaboratorUnavailable = errors.New("property_data_unavailable")
	ErrNoResults               = errors.New("no_properties_found")
	ErrMalformedEnvelope       = errors.New("malformed_property_envelope")
	ErrSearchNotFound          = errors.New("search_not_found")
)

// Property is the canonical record every provider envelope normalizes into.
// Field tags match the provider's camelCase wire names so the same struct
// decodes raw elements directly.
type Property struct {
	ID               string  `json:"id,omitempty"`
	FormattedAddress string  `json:"formattedAddress,omitempty"`
	AddressLine1     string  `json:"addressLine1,omitempty"`
	AddressLine2     string  `json:"addressLine2,omitempty"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	ZipCode          string  `json:"zipCode,omitempty"`
	County           string  `json:"county,omitempty"`
	PropertyType     string  `json:"propertyType,omitempty"`
	Bedrooms         float64 `json:"bedrooms,omitempty"`
	Bathrooms        float64 `json:"bathrooms,omitempty"`
	SquareFootage    int     `json:"squareFootage,omitempty"`
	LotSize          int     `json:"lotSize,omitempty"`
	YearBuilt        int     `json:"yearBuilt,omitempty"`
	LastSalePrice    float64 `json:"lastSalePrice,omitempty"`
	LastSaleDate     string  `json:"lastSaleDate,omitempty"`
	Latitude         float64 `json:"latitude,omitempty"`
	Longitude        float64 `json:"longitude,omitempty"`

	// Raw keeps the full provider element, including fields the canonical
	// struct does not model. It is what gets persisted with the search.
	Raw map[string]any `json:"-"`
}

// SearchRecord is one saved property lookup. The leading property's address
// facets are denormalized for history filtering and stats; the complete
// provider payload lives in PropertyData.
type SearchRecord struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID       string            `gorm:"type:text;not null;index:idx_property_searches_user_date,priority:1" json:"user_id"`
	Address      string            `gorm:"type:text;not null;default:''" json:"address"`
	PropertyType string            `gorm:"type:text;not null;default:''" json:"property_type,omitempty"`
	City         string            `gorm:"type:text;not null;default:''" json:"city,omitempty"`
	State        string            `gorm:"type:text;not null;default:''" json:"state,omitempty"`
	PropertyData datatypes.JSONMap `gorm:"type:jsonb;not null" json:"property_data"`
	SearchDate   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_property_searches_user_date,priority:2,sort:desc" json:"search_date"`
}

// TableName sets the database table name.
func (SearchRecord) TableName() string { return "property_searches" }

// FacetCount is one value of a grouped history facet.
type FacetCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Stats summarizes a user's saved search history.
type Stats struct {
	TotalSearches    int64        `json:"total_searches"`
	FirstSearch      *time.Time   `json:"first_search,omitempty"`
	LastSearch       *time.Time   `json:"last_search,omitempty"`
	TopPropertyTypes []FacetCount `json:"top_property_types"`
	TopCities        []FacetCount `json:"top_cities"`
}

// DataClient talks to the external property data provider.
type DataClient interface {
	SearchProperties(ctx context.Context, address string) ([]Property, error)
	MarketData(ctx context.Context, zipCode string) (map[string]any, error)
}

// Repository persists and queries saved searches.
type Repository interface {
	Save(ctx context.Context, record *SearchRecord) error
	Find(ctx context.Context, userID string, id int64) (*SearchRecord, error)
	List(ctx context.Context, userID string, limit, offset int) ([]SearchRecord, int64, error)
	SearchByTerm(ctx context.Context, userID, term string, limit, offset int) ([]SearchRecord, int64, error)
	Delete(ctx context.Context, userID string, id int64) error
	DeleteAll(ctx context.Context, userID string) (int64, error)
	Stats(ctx context.Context, userID string) (*Stats, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time, batchSize int) (int64, error)
	RetentionBacklog(ctx context.Context, cutoff time.Time) (int64, *time.Time, error)
}

// SearchOutcome is a successful gated lookup.
type SearchOutcome struct {
	Properties []Property `json:"properties"`
	Used       int        `json:"queries_used"`
	Ceiling    int        `json:"queries_limit"`
}

// Service is the quota-gated property lookup plus the history operations
// built on top of saved searches.
type Service interface {
	// Search performs one metered provider lookup for the user. The quota
	// gate rejects before any provider call; the counter moves only after a
	// successful provider response.
	Search(ctx context.Context, userID, email, address string) (*SearchOutcome, error)
	Market(ctx context.Context, zipCode string) (map[string]any, error)

	History(ctx context.Context, userID string, limit, offset int) ([]SearchRecord, int64, error)
	FindSearch(ctx context.Context, userID string, id int64) (*SearchRecord, error)
	FilterHistory(ctx context.Context, userID, term string, limit, offset int) ([]SearchRecord, int64, error)
	DeleteSearch(ctx context.Context, userID string, id int64) error
	ClearHistory(ctx context.Context, userID string) (int64, error)
	HistoryStats(ctx context.Context, userID string) (*Stats, error)
}
