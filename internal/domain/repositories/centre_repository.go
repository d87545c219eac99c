package repositories

import (
	"context"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
)

// CentreRepository defines the interface for listing data operations
type CentreRepository interface {
	// Create creates a new centre
	Create(ctx context.Context, centre *entities.Centre) error

	// GetByID retrieves a centre by ID
	GetByID(ctx context.Context, id string) (*entities.Centre, error)

	// Update updates a centre
	Update(ctx context.Context, centre *entities.Centre) error

	// UpdateStatus changes the moderation status of a centre
	UpdateStatus(ctx context.Context, id string, status entities.CentreStatus) error

	// Delete removes a centre
	Delete(ctx context.Context, id string) error

	// List retrieves centres matching the filter, without the in-memory
	// service post-filter (that belongs to the service layer)
	List(ctx context.Context, filter CentreFilter) ([]*entities.Centre, int, error)

	// IncrementViewCount bumps the view counter of a centre
	IncrementViewCount(ctx context.Context, id string) error

	// CountByStatus returns listing counts grouped by moderation status
	CountByStatus(ctx context.Context) (map[entities.CentreStatus]int, error)

	// CountByType returns approved listing counts grouped by centre type
	CountByType(ctx context.Context) (map[string]int, error)

	// CountByCity returns approved listing counts grouped by city
	CountByCity(ctx context.Context) (map[string]int, error)
}

// CentreSearchRepository defines the interface for the optional full-text
// index (Typesense). The SQL path remains authoritative when it is absent.
type CentreSearchRepository interface {
	// Search returns ids of centres whose name/description/address match the query
	Search(ctx context.Context, query string, limit int) ([]string, error)

	// Index upserts a centre into the index
	Index(ctx context.Context, centre *entities.Centre) error

	// Delete removes a centre from the index
	Delete(ctx context.Context, id string) error
}

// SortKey orders centre listings.
type SortKey string

const (
	SortRecent   SortKey = "recent"
	SortDistance SortKey = "distance"
	SortName     SortKey = "name"
)

// CentreFilter defines the server-side predicates for listing centres.
// Query matches name/description/address as a case-insensitive substring;
// the remaining fields are equality predicates.
type CentreFilter struct {
	Query                string
	City                 string
	CentreType           string
	ServiceCategory      string
	Emergency24h         *bool
	WheelchairAccessible *bool
	Status               entities.CentreStatus

	// Services is matched in memory by the service layer; it is carried here
	// so callers can tell whether a post-filter pass is required.
	Services []string

	// IDs restricts results to the given identifiers (search-index hits).
	IDs []string

	SortBy SortKey
	// Latitude/Longitude are required for SortDistance.
	Latitude  *float64
	Longitude *float64
	RadiusKm  float64

	Limit  int
	Offset int
	// NoPagination returns the full filtered set (map view).
	NoPagination bool
}
