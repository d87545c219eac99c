package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/mmcloughlin/geohash"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/iroy-mg/iroy-backend/pkg/errors"
)

// geohashPrecision of 7 resolves to roughly 150 m cells, enough to locate a
// centre inside a city block.
const geohashPrecision = 7

const centreColumns = `
	id, name, description, centre_type, address, city, district,
	phone, phone2, whatsapp, email, website,
	emergency_24h, wheelchair_accessible, parking, public_transport,
	services, specialties, opening_hours,
	latitude, longitude, geohash, photos,
	status, view_count, admin_notes, created_at, updated_at
`

// CentreAdapter implements the CentreRepository interface
type CentreAdapter struct {
	client *postgres.Client
	qb     *goqu.Database
}

// NewCentreAdapter creates a new centre adapter
func NewCentreAdapter(client *postgres.Client) repositories.CentreRepository {
	return &CentreAdapter{
		client: client,
		qb:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new centre
func (a *CentreAdapter) Create(ctx context.Context, centre *entities.Centre) error {
	if centre.ID == "" {
		centre.ID = uuid.New().String()
	}
	now := time.Now()
	if centre.CreatedAt.IsZero() {
		centre.CreatedAt = now
	}
	centre.UpdatedAt = now
	applyGeohash(centre)

	hours, err := marshalOpeningHours(centre.OpeningHours)
	if err != nil {
		return apperrors.NewInternalError("failed to encode opening hours", err)
	}

	query := `
		INSERT INTO centres (` + centreColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`

	_, err = a.client.DB().ExecContext(ctx, query,
		centre.ID,
		centre.Name,
		centre.Description,
		centre.CentreType,
		centre.Address,
		centre.City,
		centre.District,
		centre.Phone,
		centre.Phone2,
		centre.WhatsApp,
		centre.Email,
		centre.Website,
		centre.Emergency24h,
		centre.WheelchairAccessible,
		centre.Parking,
		centre.PublicTransport,
		pq.Array(centre.Services),
		pq.Array(centre.Specialties),
		hours,
		nullFloat(locationLat(centre)),
		nullFloat(locationLng(centre)),
		centre.Geohash,
		pq.Array(centre.Photos),
		centre.Status,
		centre.ViewCount,
		centre.AdminNotes,
		centre.CreatedAt,
		centre.UpdatedAt,
	)

	if err != nil {
		return apperrors.NewInternalError("failed to create centre", err)
	}

	return nil
}

// GetByID retrieves a centre by ID
func (a *CentreAdapter) GetByID(ctx context.Context, id string) (*entities.Centre, error) {
	query := `SELECT ` + centreColumns + ` FROM centres WHERE id = $1`

	centre, err := scanCentre(a.client.DB().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("centre with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get centre", err)
	}

	return centre, nil
}

// Update updates a centre
func (a *CentreAdapter) Update(ctx context.Context, centre *entities.Centre) error {
	centre.UpdatedAt = time.Now()
	applyGeohash(centre)

	hours, err := marshalOpeningHours(centre.OpeningHours)
	if err != nil {
		return apperrors.NewInternalError("failed to encode opening hours", err)
	}

	query := `
		UPDATE centres SET
			name = $2, description = $3, centre_type = $4, address = $5,
			city = $6, district = $7, phone = $8, phone2 = $9, whatsapp = $10,
			email = $11, website = $12, emergency_24h = $13,
			wheelchair_accessible = $14, parking = $15, public_transport = $16,
			services = $17, specialties = $18, opening_hours = $19,
			latitude = $20, longitude = $21, geohash = $22, photos = $23,
			status = $24, admin_notes = $25, updated_at = $26
		WHERE id = $1
	`

	result, err := a.client.DB().ExecContext(ctx, query,
		centre.ID,
		centre.Name,
		centre.Description,
		centre.CentreType,
		centre.Address,
		centre.City,
		centre.District,
		centre.Phone,
		centre.Phone2,
		centre.WhatsApp,
		centre.Email,
		centre.Website,
		centre.Emergency24h,
		centre.WheelchairAccessible,
		centre.Parking,
		centre.PublicTransport,
		pq.Array(centre.Services),
		pq.Array(centre.Specialties),
		hours,
		nullFloat(locationLat(centre)),
		nullFloat(locationLng(centre)),
		centre.Geohash,
		pq.Array(centre.Photos),
		centre.Status,
		centre.AdminNotes,
		centre.UpdatedAt,
	)

	if err != nil {
		return apperrors.NewInternalError("failed to update centre", err)
	}

	return requireRowAffected(result, centre.ID)
}

// UpdateStatus changes the moderation status of a centre
func (a *CentreAdapter) UpdateStatus(ctx context.Context, id string, status entities.CentreStatus) error {
	query := `UPDATE centres SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := a.client.DB().ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return apperrors.NewInternalError("failed to update centre status", err)
	}

	return requireRowAffected(result, id)
}

// Delete removes a centre
func (a *CentreAdapter) Delete(ctx context.Context, id string) error {
	result, err := a.client.DB().ExecContext(ctx, `DELETE FROM centres WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewInternalError("failed to delete centre", err)
	}

	return requireRowAffected(result, id)
}

// List retrieves centres matching the filter along with the total count of
// rows matching the same predicates. Pagination is skipped entirely when the
// filter requests it (the service layer repaginates after its post-filter).
func (a *CentreAdapter) List(ctx context.Context, filter repositories.CentreFilter) ([]*entities.Centre, int, error) {
	where := buildCentrePredicates(filter)

	countSQL, countArgs, err := a.qb.From("centres").
		Select(goqu.COUNT("*")).
		Where(where...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build centre count query", err)
	}

	var total int
	if err := a.client.DB().QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewInternalError("failed to count centres", err)
	}

	ds := a.qb.From("centres").
		Select(goqu.L(centreColumns)).
		Where(where...).
		Order(centreOrder(filter)...)

	if !filter.NoPagination && filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit)).Offset(uint(filter.Offset))
	}

	querySQL, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to build centre list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, 0, apperrors.NewInternalError("failed to list centres", err)
	}
	defer rows.Close()

	centres := []*entities.Centre{}
	for rows.Next() {
		centre, err := scanCentre(rows)
		if err != nil {
			return nil, 0, apperrors.NewInternalError("failed to scan centre", err)
		}
		centres = append(centres, centre)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, apperrors.NewInternalError("error iterating centres", err)
	}

	return centres, total, nil
}

// IncrementViewCount bumps the view counter of a centre
func (a *CentreAdapter) IncrementViewCount(ctx context.Context, id string) error {
	result, err := a.client.DB().ExecContext(ctx,
		`UPDATE centres SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewInternalError("failed to increment view count", err)
	}

	return requireRowAffected(result, id)
}

// CountByStatus returns listing counts grouped by moderation status
func (a *CentreAdapter) CountByStatus(ctx context.Context) (map[entities.CentreStatus]int, error) {
	rows, err := a.client.DB().QueryContext(ctx,
		`SELECT status, COUNT(*) FROM centres GROUP BY status`)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count centres by status", err)
	}
	defer rows.Close()

	counts := map[entities.CentreStatus]int{}
	for rows.Next() {
		var status entities.CentreStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan status count", err)
		}
		counts[status] = count
	}

	return counts, rows.Err()
}

// CountByType returns approved listing counts grouped by centre type
func (a *CentreAdapter) CountByType(ctx context.Context) (map[string]int, error) {
	return a.countApprovedBy(ctx, "centre_type")
}

// CountByCity returns approved listing counts grouped by city
func (a *CentreAdapter) CountByCity(ctx context.Context) (map[string]int, error) {
	return a.countApprovedBy(ctx, "city")
}

func (a *CentreAdapter) countApprovedBy(ctx context.Context, column string) (map[string]int, error) {
	query, args, err := a.qb.From("centres").
		Select(goqu.C(column), goqu.COUNT("*")).
		Where(goqu.C("status").Eq(string(entities.StatusApproved))).
		GroupBy(goqu.C(column)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build centre count query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count centres", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan centre count", err)
		}
		counts[key] = count
	}

	return counts, rows.Err()
}

// buildCentrePredicates translates the filter into goqu expressions. The
// services post-filter is deliberately absent: array-contains-substring
// matching happens in memory in the service layer.
func buildCentrePredicates(filter repositories.CentreFilter) []goqu.Expression {
	where := []goqu.Expression{}

	if filter.Status != "" {
		where = append(where, goqu.C("status").Eq(string(filter.Status)))
	}
	if filter.City != "" {
		where = append(where, goqu.C("city").ILike(filter.City))
	}
	if filter.CentreType != "" {
		where = append(where, goqu.C("centre_type").Eq(filter.CentreType))
	}
	if filter.Emergency24h != nil {
		where = append(where, goqu.C("emergency_24h").Eq(*filter.Emergency24h))
	}
	if filter.WheelchairAccessible != nil {
		where = append(where, goqu.C("wheelchair_accessible").Eq(*filter.WheelchairAccessible))
	}
	if len(filter.IDs) > 0 {
		where = append(where, goqu.C("id").In(filter.IDs))
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		where = append(where, goqu.Or(
			goqu.C("name").ILike(pattern),
			goqu.C("description").ILike(pattern),
			goqu.C("address").ILike(pattern),
		))
	}
	if filter.ServiceCategory != "" {
		// Category match is a coarse SQL-side pass over the services array;
		// the precise per-term matching happens in the service layer.
		where = append(where, goqu.L(
			"EXISTS (SELECT 1 FROM unnest(services) AS s WHERE s ILIKE ?)",
			"%"+filter.ServiceCategory+"%",
		))
	}
	if filter.Latitude != nil && filter.Longitude != nil && filter.RadiusKm > 0 {
		where = append(where, geohashPrefilter(*filter.Latitude, *filter.Longitude, filter.RadiusKm))
	}

	return where
}

// geohashPrefilter restricts rows to the geohash cells covering the search
// radius. The exact Haversine cut happens in the service layer; this only
// keeps the scan away from the rest of the country.
func geohashPrefilter(lat, lng, radiusKm float64) goqu.Expression {
	precision := radiusPrecision(radiusKm)
	center := geohash.EncodeWithPrecision(lat, lng, precision)

	prefixes := append(geohash.Neighbors(center), center)
	patterns := []goqu.Expression{}
	for _, p := range prefixes {
		patterns = append(patterns, goqu.C("geohash").Like(p+"%"))
	}

	return goqu.Or(patterns...)
}

// radiusPrecision picks the geohash cell size whose width comfortably covers
// the radius: each step down roughly quarters the cell.
func radiusPrecision(radiusKm float64) uint {
	switch {
	case radiusKm <= 0.6:
		return 6
	case radiusKm <= 2.4:
		return 5
	case radiusKm <= 20:
		return 4
	case radiusKm <= 78:
		return 3
	default:
		return 2
	}
}

func centreOrder(filter repositories.CentreFilter) []exp.OrderedExpression {
	switch filter.SortBy {
	case repositories.SortName:
		// Coarse DB ordering; the service layer re-sorts with French collation.
		return []exp.OrderedExpression{goqu.L("lower(name)").Asc()}
	default:
		return []exp.OrderedExpression{
			goqu.C("updated_at").Desc(),
			goqu.C("created_at").Desc(),
		}
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCentre(row rowScanner) (*entities.Centre, error) {
	centre := &entities.Centre{}
	var (
		services    pq.StringArray
		specialties pq.StringArray
		photos      pq.StringArray
		hours       []byte
		lat, lng    sql.NullFloat64
	)

	err := row.Scan(
		&centre.ID,
		&centre.Name,
		&centre.Description,
		&centre.CentreType,
		&centre.Address,
		&centre.City,
		&centre.District,
		&centre.Phone,
		&centre.Phone2,
		&centre.WhatsApp,
		&centre.Email,
		&centre.Website,
		&centre.Emergency24h,
		&centre.WheelchairAccessible,
		&centre.Parking,
		&centre.PublicTransport,
		&services,
		&specialties,
		&hours,
		&lat,
		&lng,
		&centre.Geohash,
		&photos,
		&centre.Status,
		&centre.ViewCount,
		&centre.AdminNotes,
		&centre.CreatedAt,
		&centre.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	centre.Services = services
	centre.Specialties = specialties
	centre.Photos = photos
	if lat.Valid && lng.Valid {
		centre.Location = &entities.Location{Latitude: lat.Float64, Longitude: lng.Float64}
	}
	if len(hours) > 0 {
		if err := json.Unmarshal(hours, &centre.OpeningHours); err != nil {
			return nil, err
		}
	}

	return centre, nil
}

func marshalOpeningHours(hours map[string]entities.DayHours) ([]byte, error) {
	if hours == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(hours)
}

func applyGeohash(centre *entities.Centre) {
	if centre.Location == nil {
		centre.Geohash = ""
		return
	}
	centre.Geohash = geohash.EncodeWithPrecision(
		centre.Location.Latitude,
		centre.Location.Longitude,
		geohashPrecision,
	)
}

func locationLat(centre *entities.Centre) *float64 {
	if centre.Location == nil {
		return nil
	}
	return &centre.Location.Latitude
}

func locationLng(centre *entities.Centre) *float64 {
	if centre.Location == nil {
		return nil
	}
	return &centre.Location.Longitude
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func requireRowAffected(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("centre with id %s not found", id))
	}
	return nil
}
