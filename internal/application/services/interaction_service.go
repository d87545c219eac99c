package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/providers"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/observability"
	"github.com/iroy-mg/iroy-backend/pkg/config"
	"github.com/iroy-mg/iroy-backend/pkg/errors"
	"github.com/iroy-mg/iroy-backend/pkg/utils"
)

// fallbackServices pads the popular-services panel when the tracking window
// is too thin. Names match what the directory seeds in Madagascar.
var fallbackServices = []string{
	"Urgences",
	"Consultation générale",
	"Pharmacie de garde",
	"Maternité",
	"Pédiatrie",
	"Laboratoire d'analyses",
	"Vaccination",
	"Radiologie",
}

const popularServicesCacheKey = "popular_services"

// InteractionService records user interactions and derives service popularity.
type InteractionService struct {
	repo    repositories.InteractionRepository
	centres repositories.CentreRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
	cfg     config.TrackingConfig
}

// NewInteractionService creates an interaction service. cache and metrics may
// be nil; tracking then loses the view cooldown and the popularity cache but
// keeps working.
func NewInteractionService(
	repo repositories.InteractionRepository,
	centres repositories.CentreRepository,
	cache providers.CacheProvider,
	metrics *observability.Metrics,
	cfg config.TrackingConfig,
) *InteractionService {
	return &InteractionService{
		repo:    repo,
		centres: centres,
		cache:   cache,
		metrics: metrics,
		cfg:     cfg,
	}
}

// Record appends an interaction event. It never blocks the caller: the write
// runs in the background with a fresh context and failures are only logged.
func (s *InteractionService) Record(ctx context.Context, event *entities.InteractionEvent) error {
	if !entities.IsValidInteractionType(event.Type) {
		return errors.NewValidationError(fmt.Sprintf("unknown interaction type %q", event.Type))
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.Value == 0 {
		event.Value = 1
	}

	observability.RecordInteraction(ctx, s.metrics, string(event.Type))

	go func() {
		// The request context may already be cancelled by the time the write
		// lands, so use a fresh one.
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.LogEvent(bgCtx, event); err != nil {
			log.Printf("Warning: failed to log interaction event: %v", err)
		}
	}()

	return nil
}

// RecordView counts a detail-page view, at most once per cooldown window per
// session. The cooldown is best-effort: without a cache every view counts.
func (s *InteractionService) RecordView(ctx context.Context, centreID, sessionID string) error {
	if s.cache != nil && sessionID != "" {
		key := fmt.Sprintf("view_cooldown:%s:%s", sessionID, centreID)
		stored, err := s.cache.SetNX(ctx, key, []byte("1"), s.cfg.ViewCooldown)
		if err != nil {
			log.Printf("Warning: view cooldown check failed: %v", err)
		} else if !stored {
			// Within the cooldown window; the view was already counted.
			return nil
		}
	}

	if err := s.centres.IncrementViewCount(ctx, centreID); err != nil {
		return err
	}

	return s.Record(ctx, &entities.InteractionEvent{
		Type:      entities.InteractionCentreView,
		CentreID:  centreID,
		SessionID: sessionID,
	})
}

// RecordContact counts a contact action (call, WhatsApp, email) on a centre.
func (s *InteractionService) RecordContact(ctx context.Context, centreID, sessionID string) error {
	return s.Record(ctx, &entities.InteractionEvent{
		Type:      entities.InteractionCentreContact,
		CentreID:  centreID,
		SessionID: sessionID,
	})
}

// Aggregate computes per-service popularity over the trailing window. Any
// aggregation failure degrades to the static fallback list; the caller never
// sees an error.
func (s *InteractionService) Aggregate(ctx context.Context, windowDays int) []*entities.ServicePopularity {
	if windowDays <= 0 {
		windowDays = 30
	}

	cacheKey := fmt.Sprintf("%s:%dd", popularServicesCacheKey, windowDays)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil && data != nil {
			var cached []*entities.ServicePopularity
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached
			}
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	counts, err := s.repo.CountByServiceSince(ctx, since)
	if err != nil {
		log.Printf("Warning: popularity aggregation failed, using fallback list: %v", err)
		return fallbackPopularity()
	}

	result := scoreServices(counts)
	result = padWithFallback(result, s.cfg.MinPopularServices)

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, s.cfg.PopularCacheTTL); err != nil {
				log.Printf("Warning: failed to cache popular services: %v", err)
			}
		}
	}

	return result
}

// AnalyticsSummary is the admin dashboard aggregate for a trailing window.
type AnalyticsSummary struct {
	WindowDays       int                              `json:"window_days"`
	TotalsByType     map[entities.InteractionType]int `json:"totals_by_type"`
	TopServices      []*entities.ServicePopularity    `json:"top_services"`
	TopSearchTerms   []*entities.SearchTermCount      `json:"top_search_terms"`
	TopViewedCentres map[string]int                   `json:"top_viewed_centres"`
}

// Analytics builds the admin analytics summary. Unlike Aggregate, failures
// here surface to the caller.
func (s *InteractionService) Analytics(ctx context.Context, windowDays int) (*AnalyticsSummary, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -windowDays)

	totals, err := s.repo.CountByTypeSince(ctx, since)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByServiceSince(ctx, since)
	if err != nil {
		return nil, err
	}

	terms, err := s.repo.TopSearchTermsSince(ctx, since, 20)
	if err != nil {
		return nil, err
	}

	views, err := s.repo.TopViewedCentresSince(ctx, since, 20)
	if err != nil {
		return nil, err
	}

	return &AnalyticsSummary{
		WindowDays:       windowDays,
		TotalsByType:     totals,
		TopServices:      scoreServices(counts),
		TopSearchTerms:   terms,
		TopViewedCentres: views,
	}, nil
}

// scoreServices folds per-type counts into one weighted entry per service.
// Input order is preserved for equal scores (stable sort).
func scoreServices(counts []*entities.InteractionCount) []*entities.ServicePopularity {
	byService := map[string]*entities.ServicePopularity{}
	var order []string

	for _, c := range counts {
		name := strings.TrimSpace(c.ServiceName)
		if name == "" {
			continue
		}
		key := utils.FoldServiceName(name)
		entry, ok := byService[key]
		if !ok {
			entry = &entities.ServicePopularity{ServiceName: name}
			byService[key] = entry
			order = append(order, key)
		}

		weight, known := entities.InteractionWeights[c.Type]
		if !known {
			continue
		}
		entry.Score += weight * c.ValueSum

		switch c.Type {
		case entities.InteractionServiceSearch:
			entry.Searches += c.Count
		case entities.InteractionServiceClick, entities.InteractionPopularServiceClick:
			entry.Clicks += c.Count
		case entities.InteractionCentreContact:
			entry.Contacts += c.Count
		case entities.InteractionCentreView:
			entry.Views += c.Count
		}
	}

	result := make([]*entities.ServicePopularity, 0, len(order))
	for _, key := range order {
		result = append(result, byService[key])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})
	return result
}

func padWithFallback(result []*entities.ServicePopularity, min int) []*entities.ServicePopularity {
	if min <= 0 || len(result) >= min {
		return result
	}

	present := map[string]bool{}
	for _, r := range result {
		present[utils.FoldServiceName(r.ServiceName)] = true
	}
	for _, name := range fallbackServices {
		if len(result) >= min {
			break
		}
		if present[utils.FoldServiceName(name)] {
			continue
		}
		result = append(result, &entities.ServicePopularity{ServiceName: name, Fallback: true})
	}
	return result
}

func fallbackPopularity() []*entities.ServicePopularity {
	result := make([]*entities.ServicePopularity, 0, len(fallbackServices))
	for _, name := range fallbackServices {
		result = append(result, &entities.ServicePopularity{ServiceName: name, Fallback: true})
	}
	return result
}
