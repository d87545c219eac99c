package repositories

import (
	"context"
	"time"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
)

// InteractionRepository defines the interface for the append-only interaction log
type InteractionRepository interface {
	// LogEvent appends an interaction event
	LogEvent(ctx context.Context, event *entities.InteractionEvent) error

	// CountByServiceSince returns per-service, per-type counts and value sums
	// for events recorded after the given time
	CountByServiceSince(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error)

	// CountByTypeSince returns total event counts per type after the given time
	CountByTypeSince(ctx context.Context, since time.Time) (map[entities.InteractionType]int, error)

	// TopSearchTermsSince returns the most frequent search terms after the given time
	TopSearchTermsSince(ctx context.Context, since time.Time, limit int) ([]*entities.SearchTermCount, error)

	// TopViewedCentresSince returns per-centre view counts after the given time
	TopViewedCentresSince(ctx context.Context, since time.Time, limit int) (map[string]int, error)
}
