package database

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/iroy-mg/iroy-backend/pkg/errors"
)

// InteractionAdapter implements the append-only interaction log in Postgres.
type InteractionAdapter struct {
	client *postgres.Client
}

// NewInteractionAdapter creates a new interaction adapter
func NewInteractionAdapter(client *postgres.Client) repositories.InteractionRepository {
	return &InteractionAdapter{client: client}
}

// LogEvent appends an interaction event. Events are never updated afterwards.
func (a *InteractionAdapter) LogEvent(ctx context.Context, event *entities.InteractionEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.Value == 0 {
		event.Value = 1
	}

	query := `
		INSERT INTO interactions
		(id, type, service_name, centre_type, centre_id, search_term, filters, session_id, user_id, interaction_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	filters := event.Filters
	if len(filters) == 0 {
		filters = []byte("{}")
	}

	_, err := a.client.DB().ExecContext(ctx, query,
		event.ID,
		event.Type,
		event.ServiceName,
		event.CentreType,
		event.CentreID,
		event.SearchTerm,
		[]byte(filters),
		event.SessionID,
		event.UserID,
		event.Value,
		event.CreatedAt,
	)

	if err != nil {
		return apperrors.NewInternalError("failed to log interaction event", err)
	}

	return nil
}

// CountByServiceSince returns per-service, per-type counts and value sums for
// events recorded after the given time. Rows keep their first-seen order so
// the score sort upstream stays stable.
func (a *InteractionAdapter) CountByServiceSince(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error) {
	query := `
		SELECT type, service_name, COUNT(*), COALESCE(SUM(interaction_value), 0)
		FROM interactions
		WHERE created_at >= $1 AND service_name <> ''
		GROUP BY type, service_name
		ORDER BY MIN(created_at)
	`

	rows, err := a.client.DB().QueryContext(ctx, query, since)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate interactions by service", err)
	}
	defer rows.Close()

	var counts []*entities.InteractionCount
	for rows.Next() {
		c := &entities.InteractionCount{}
		if err := rows.Scan(&c.Type, &c.ServiceName, &c.Count, &c.ValueSum); err != nil {
			return nil, apperrors.NewInternalError("failed to scan interaction count", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// CountByTypeSince returns total event counts per type after the given time
func (a *InteractionAdapter) CountByTypeSince(ctx context.Context, since time.Time) (map[entities.InteractionType]int, error) {
	query := `
		SELECT type, COUNT(*)
		FROM interactions
		WHERE created_at >= $1
		GROUP BY type
	`

	rows, err := a.client.DB().QueryContext(ctx, query, since)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate interactions by type", err)
	}
	defer rows.Close()

	counts := map[entities.InteractionType]int{}
	for rows.Next() {
		var t entities.InteractionType
		var count int
		if err := rows.Scan(&t, &count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan interaction type count", err)
		}
		counts[t] = count
	}

	return counts, rows.Err()
}

// TopSearchTermsSince returns the most frequent search terms after the given time
func (a *InteractionAdapter) TopSearchTermsSince(ctx context.Context, since time.Time, limit int) ([]*entities.SearchTermCount, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT lower(search_term), COUNT(*)
		FROM interactions
		WHERE created_at >= $1 AND type = $2 AND search_term <> ''
		GROUP BY lower(search_term)
		ORDER BY COUNT(*) DESC
		LIMIT $3
	`

	rows, err := a.client.DB().QueryContext(ctx, query, since, entities.InteractionServiceSearch, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate search terms", err)
	}
	defer rows.Close()

	var terms []*entities.SearchTermCount
	for rows.Next() {
		t := &entities.SearchTermCount{}
		if err := rows.Scan(&t.Term, &t.Count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan search term count", err)
		}
		terms = append(terms, t)
	}

	return terms, rows.Err()
}

// TopViewedCentresSince returns per-centre view counts after the given time
func (a *InteractionAdapter) TopViewedCentresSince(ctx context.Context, since time.Time, limit int) (map[string]int, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT centre_id, COUNT(*)
		FROM interactions
		WHERE created_at >= $1 AND type = $2 AND centre_id <> ''
		GROUP BY centre_id
		ORDER BY COUNT(*) DESC
		LIMIT $3
	`

	rows, err := a.client.DB().QueryContext(ctx, query, since, entities.InteractionCentreView, limit)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate centre views", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var id string
		var count int
		if err := rows.Scan(&id, &count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan centre view count", err)
		}
		counts[id] = count
	}

	return counts, rows.Err()
}
