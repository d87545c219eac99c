package services

import (
	"context"
	"log"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/internal/geo"
	"github.com/iroy-mg/iroy-backend/pkg/errors"
	"github.com/iroy-mg/iroy-backend/pkg/utils"
)

// CentreService handles business logic for centre listings
type CentreService struct {
	repo       repositories.CentreRepository
	searchRepo repositories.CentreSearchRepository
	collator   *collate.Collator
}

// NewCentreService creates a new centre service. searchRepo may be nil, in
// which case free-text search stays on the database path.
func NewCentreService(repo repositories.CentreRepository, searchRepo repositories.CentreSearchRepository) *CentreService {
	return &CentreService{
		repo:       repo,
		searchRepo: searchRepo,
		collator:   collate.New(language.French, collate.IgnoreCase),
	}
}

// searchIndexLimit caps how many ids the free-text index may contribute to a
// single query.
const searchIndexLimit = 250

// Search runs the full listing pipeline: server-side predicates, the
// in-memory service post-filter, sorting and pagination. Totals always
// reflect the post-filtered set.
func (s *CentreService) Search(ctx context.Context, filter repositories.CentreFilter) ([]*entities.Centre, *entities.Pagination, error) {
	page, limit := normalizePage(filter.Limit, filter.Offset)

	// Free-text leg: prefer the search index when available, keep the SQL
	// ILIKE path as fallback.
	if filter.Query != "" && s.searchRepo != nil {
		ids, err := s.searchRepo.Search(ctx, filter.Query, searchIndexLimit)
		if err != nil {
			log.Printf("Warning: search index unavailable, falling back to database: %v", err)
		} else if len(ids) == 0 {
			return []*entities.Centre{}, emptyPagination(page, limit), nil
		} else {
			filter.IDs = ids
			filter.Query = ""
		}
	}

	// The service post-filter and locale-aware sorts need the full filtered
	// set; pagination is reapplied in memory afterwards.
	repoFilter := filter
	repoFilter.NoPagination = true
	repoFilter.Limit = 0
	repoFilter.Offset = 0

	centres, _, err := s.repo.List(ctx, repoFilter)
	if err != nil {
		return nil, nil, err
	}

	if len(filter.Services) > 0 {
		centres = filterByServices(centres, filter.Services)
	}

	// The geohash pre-filter in the repository is coarse; apply the exact
	// radius cut here.
	if filter.Latitude != nil && filter.Longitude != nil && filter.RadiusKm > 0 {
		centres = filterByRadius(centres, *filter.Latitude, *filter.Longitude, filter.RadiusKm)
	}

	s.sortCentres(centres, filter)

	total := len(centres)
	pagination := &entities.Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: pageCount(total, limit),
	}

	if filter.NoPagination {
		pagination.Page = 1
		pagination.Limit = total
		pagination.Pages = 1
		return centres, pagination, nil
	}

	start := (page - 1) * limit
	if start >= total {
		return []*entities.Centre{}, pagination, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return centres[start:end], pagination, nil
}

// GetByID retrieves a centre regardless of moderation status.
func (s *CentreService) GetByID(ctx context.Context, id string) (*entities.Centre, error) {
	return s.repo.GetByID(ctx, id)
}

// GetPublicByID retrieves a centre for the public detail page. Listings that
// are not approved are reported as not found.
func (s *CentreService) GetPublicByID(ctx context.Context, id string) (*entities.Centre, error) {
	centre, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !centre.IsPubliclyVisible() {
		return nil, errors.NewNotFoundError("centre not found")
	}
	return centre, nil
}

// Submit validates a public submission and stores it as pending.
func (s *CentreService) Submit(ctx context.Context, centre *entities.Centre) error {
	if err := validateSubmission(centre); err != nil {
		return err
	}

	centre.Services = cleanStringSet(centre.Services)
	centre.Specialties = cleanStringSet(centre.Specialties)

	// Public submissions never choose their own moderation state.
	centre.Status = entities.StatusPending
	centre.ViewCount = 0
	centre.AdminNotes = ""

	return s.repo.Create(ctx, centre)
}

// Create stores a centre from the back-office. Approved listings go straight
// into the search index.
func (s *CentreService) Create(ctx context.Context, centre *entities.Centre) error {
	if err := validateSubmission(centre); err != nil {
		return err
	}
	centre.Services = cleanStringSet(centre.Services)
	centre.Specialties = cleanStringSet(centre.Specialties)
	if centre.Status == "" {
		centre.Status = entities.StatusPending
	}

	if err := s.repo.Create(ctx, centre); err != nil {
		return err
	}
	s.syncIndex(ctx, centre)
	return nil
}

// Update updates a centre and syncs the search index with its visibility.
func (s *CentreService) Update(ctx context.Context, centre *entities.Centre) error {
	if err := validateSubmission(centre); err != nil {
		return err
	}
	centre.Services = cleanStringSet(centre.Services)
	centre.Specialties = cleanStringSet(centre.Specialties)

	if err := s.repo.Update(ctx, centre); err != nil {
		return err
	}
	s.syncIndex(ctx, centre)
	return nil
}

// UpdateStatus approves or rejects a listing and syncs the search index with
// the new visibility.
func (s *CentreService) UpdateStatus(ctx context.Context, id string, status entities.CentreStatus) error {
	switch status {
	case entities.StatusPending, entities.StatusApproved, entities.StatusRejected:
	default:
		return errors.NewValidationError("invalid status")
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	if s.searchRepo != nil {
		if centre, err := s.repo.GetByID(ctx, id); err == nil {
			s.syncIndex(ctx, centre)
		}
	}
	return nil
}

// Delete removes a centre and its index entry.
func (s *CentreService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.searchRepo != nil {
		if err := s.searchRepo.Delete(ctx, id); err != nil {
			log.Printf("Warning: failed to delete centre %s from index: %v", id, err)
		}
	}
	return nil
}

// BulkAction is an operation applied to a list of centres as one batch.
type BulkAction string

const (
	BulkApprove BulkAction = "approve"
	BulkReject  BulkAction = "reject"
	BulkDelete  BulkAction = "delete"
)

// Bulk applies an action across an id list. The batch succeeds or fails as a
// whole; there is no per-item reporting.
func (s *CentreService) Bulk(ctx context.Context, action BulkAction, ids []string) error {
	if len(ids) == 0 {
		return errors.NewValidationError("no centre ids provided")
	}

	for _, id := range ids {
		var err error
		switch action {
		case BulkApprove:
			err = s.repo.UpdateStatus(ctx, id, entities.StatusApproved)
		case BulkReject:
			err = s.repo.UpdateStatus(ctx, id, entities.StatusRejected)
		case BulkDelete:
			err = s.Delete(ctx, id)
		default:
			return errors.NewValidationError("unknown bulk action")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// syncIndex keeps the search index aligned with public visibility: approved
// listings are upserted, everything else is removed.
func (s *CentreService) syncIndex(ctx context.Context, centre *entities.Centre) {
	if s.searchRepo == nil {
		return
	}
	if !centre.IsPubliclyVisible() {
		if err := s.searchRepo.Delete(ctx, centre.ID); err != nil {
			log.Printf("Warning: failed to remove centre %s from index: %v", centre.ID, err)
		}
		return
	}
	if err := s.searchRepo.Index(ctx, centre); err != nil {
		log.Printf("Warning: failed to index centre %s: %v", centre.ID, err)
	}
}

func (s *CentreService) sortCentres(centres []*entities.Centre, filter repositories.CentreFilter) {
	sortBy := filter.SortBy
	if sortBy == repositories.SortDistance && (filter.Latitude == nil || filter.Longitude == nil) {
		// Distance order without a position falls back to name order.
		sortBy = repositories.SortName
	}

	switch sortBy {
	case repositories.SortName:
		sort.SliceStable(centres, func(i, j int) bool {
			return s.collator.CompareString(centres[i].Name, centres[j].Name) < 0
		})
	case repositories.SortDistance:
		for _, c := range centres {
			if c.Location != nil {
				d := geo.DistanceKm(*filter.Latitude, *filter.Longitude, c.Location.Latitude, c.Location.Longitude)
				c.DistanceKm = &d
			}
		}
		sort.SliceStable(centres, func(i, j int) bool {
			di, dj := centres[i].DistanceKm, centres[j].DistanceKm
			// Centres with no coordinates sort after those with a distance.
			if di == nil {
				return false
			}
			if dj == nil {
				return true
			}
			return *di < *dj
		})
	default:
		// "recent" keeps the repository's updated_at/created_at order.
	}
}

// filterByServices keeps centres offering at least one of the wanted services,
// matched case-insensitively by exact name or substring either way.
func filterByServices(centres []*entities.Centre, wanted []string) []*entities.Centre {
	out := make([]*entities.Centre, 0, len(centres))
	for _, c := range centres {
		if centreHasService(c, wanted) {
			out = append(out, c)
		}
	}
	return out
}

func filterByRadius(centres []*entities.Centre, lat, lng, radiusKm float64) []*entities.Centre {
	out := make([]*entities.Centre, 0, len(centres))
	for _, c := range centres {
		if c.Location == nil {
			continue
		}
		if geo.DistanceKm(lat, lng, c.Location.Latitude, c.Location.Longitude) <= radiusKm {
			out = append(out, c)
		}
	}
	return out
}

func centreHasService(centre *entities.Centre, wanted []string) bool {
	for _, w := range wanted {
		for _, have := range centre.Services {
			if utils.ServiceNamesMatch(have, w) {
				return true
			}
		}
	}
	return false
}

func validateSubmission(centre *entities.Centre) error {
	fields := map[string]string{}

	if strings.TrimSpace(centre.Name) == "" {
		fields["name"] = "name is required"
	}
	if !isValidCentreType(centre.CentreType) {
		fields["center_type"] = "unknown centre type"
	}
	if strings.TrimSpace(centre.City) == "" {
		fields["city"] = "city is required"
	}
	if strings.TrimSpace(centre.Phone) == "" {
		fields["phone"] = "phone is required"
	}
	if len(cleanStringSet(centre.Services)) == 0 {
		fields["services"] = "at least one service is required"
	}

	if len(fields) > 0 {
		return errors.NewFieldValidationError("invalid centre submission", fields)
	}
	return nil
}

func isValidCentreType(t string) bool {
	switch t {
	case entities.CentreTypeHospital, entities.CentreTypeClinic, entities.CentreTypePharmacy,
		entities.CentreTypeHealthPost, entities.CentreTypeLaboratory, entities.CentreTypeDispensary,
		entities.CentreTypeEmergency:
		return true
	}
	return false
}

func cleanStringSet(values []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := utils.FoldServiceName(v)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

func normalizePage(limit, offset int) (page int, lim int) {
	lim = limit
	if lim <= 0 {
		lim = 20
	}
	if lim > 100 {
		lim = 100
	}
	page = offset/lim + 1
	if page < 1 {
		page = 1
	}
	return page, lim
}

func pageCount(total, limit int) int {
	if limit <= 0 {
		return 1
	}
	pages := (total + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return pages
}

func emptyPagination(page, limit int) *entities.Pagination {
	return &entities.Pagination{Page: page, Limit: limit, Total: 0, Pages: 1}
}
