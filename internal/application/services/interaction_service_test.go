package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/pkg/config"
)

type stubInteractionRepo struct {
	logged      chan *entities.InteractionEvent
	countsFn    func(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error)
	totalsFn    func(ctx context.Context, since time.Time) (map[entities.InteractionType]int, error)
	termsFn     func(ctx context.Context, since time.Time, limit int) ([]*entities.SearchTermCount, error)
	topViewedFn func(ctx context.Context, since time.Time, limit int) (map[string]int, error)
}

func newStubInteractionRepo() *stubInteractionRepo {
	return &stubInteractionRepo{logged: make(chan *entities.InteractionEvent, 8)}
}

func (r *stubInteractionRepo) LogEvent(ctx context.Context, event *entities.InteractionEvent) error {
	r.logged <- event
	return nil
}

func (r *stubInteractionRepo) CountByServiceSince(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error) {
	if r.countsFn != nil {
		return r.countsFn(ctx, since)
	}
	return nil, nil
}

func (r *stubInteractionRepo) CountByTypeSince(ctx context.Context, since time.Time) (map[entities.InteractionType]int, error) {
	if r.totalsFn != nil {
		return r.totalsFn(ctx, since)
	}
	return map[entities.InteractionType]int{}, nil
}

func (r *stubInteractionRepo) TopSearchTermsSince(ctx context.Context, since time.Time, limit int) ([]*entities.SearchTermCount, error) {
	if r.termsFn != nil {
		return r.termsFn(ctx, since, limit)
	}
	return nil, nil
}

func (r *stubInteractionRepo) TopViewedCentresSince(ctx context.Context, since time.Time, limit int) (map[string]int, error) {
	if r.topViewedFn != nil {
		return r.topViewedFn(ctx, since, limit)
	}
	return map[string]int{}, nil
}

type stubCache struct {
	setNXFn func(ctx context.Context, key string) (bool, error)
	store   map[string][]byte
}

func newStubCache() *stubCache {
	return &stubCache{store: map[string][]byte{}}
}

func (c *stubCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.store[key]; ok {
		return v, nil
	}
	return nil, nil
}

func (c *stubCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	c.store[key] = value
	return nil
}

func (c *stubCache) SetNX(ctx context.Context, key string, value []byte, expiration time.Duration) (bool, error) {
	if c.setNXFn != nil {
		return c.setNXFn(ctx, key)
	}
	if _, ok := c.store[key]; ok {
		return false, nil
	}
	c.store[key] = value
	return true, nil
}

func (c *stubCache) Delete(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func (c *stubCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.store[key]
	return ok, nil
}

func trackingConfig() config.TrackingConfig {
	return config.TrackingConfig{
		ViewCooldown:       5 * time.Minute,
		MinPopularServices: 6,
		PopularCacheTTL:    10 * time.Minute,
	}
}

func waitForEvent(t *testing.T, ch chan *entities.InteractionEvent) *entities.InteractionEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("expected an interaction event to be logged")
		return nil
	}
}

func TestInteractionService_Record_DefaultsAndAsyncWrite(t *testing.T) {
	repo := newStubInteractionRepo()
	service := services.NewInteractionService(repo, newStubCentreRepo(), nil, nil, trackingConfig())

	err := service.Record(context.Background(), &entities.InteractionEvent{
		Type:        entities.InteractionServiceClick,
		ServiceName: "Urgences",
		SessionID:   "sess-1",
	})
	require.NoError(t, err)

	ev := waitForEvent(t, repo.logged)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())
	assert.Equal(t, 1.0, ev.Value)
}

func TestInteractionService_Record_RejectsUnknownType(t *testing.T) {
	service := services.NewInteractionService(newStubInteractionRepo(), newStubCentreRepo(), nil, nil, trackingConfig())

	err := service.Record(context.Background(), &entities.InteractionEvent{Type: "page_scroll"})
	assert.Error(t, err)
}

func TestInteractionService_RecordView_CooldownSuppressesSecondView(t *testing.T) {
	repo := newStubInteractionRepo()
	centres := newStubCentreRepo()
	cache := newStubCache()
	service := services.NewInteractionService(repo, centres, cache, nil, trackingConfig())

	require.NoError(t, service.RecordView(context.Background(), "c-1", "sess-1"))
	waitForEvent(t, repo.logged)
	assert.Equal(t, 1, centres.viewCounts["c-1"])

	// Same session inside the window: no second count, no second event.
	require.NoError(t, service.RecordView(context.Background(), "c-1", "sess-1"))
	assert.Equal(t, 1, centres.viewCounts["c-1"])

	// A different session counts immediately.
	require.NoError(t, service.RecordView(context.Background(), "c-1", "sess-2"))
	waitForEvent(t, repo.logged)
	assert.Equal(t, 2, centres.viewCounts["c-1"])
}

func TestInteractionService_RecordView_CooldownErrorStillCounts(t *testing.T) {
	repo := newStubInteractionRepo()
	centres := newStubCentreRepo()
	cache := newStubCache()
	cache.setNXFn = func(ctx context.Context, key string) (bool, error) {
		return false, assert.AnError
	}
	service := services.NewInteractionService(repo, centres, cache, nil, trackingConfig())

	require.NoError(t, service.RecordView(context.Background(), "c-1", "sess-1"))
	assert.Equal(t, 1, centres.viewCounts["c-1"])
}

func TestInteractionService_Aggregate_WeightsAndOrder(t *testing.T) {
	repo := newStubInteractionRepo()
	repo.countsFn = func(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error) {
		return []*entities.InteractionCount{
			{Type: entities.InteractionServiceClick, ServiceName: "Radiologie", Count: 2, ValueSum: 2},
			{Type: entities.InteractionCentreContact, ServiceName: "Maternité", Count: 2, ValueSum: 2},
			{Type: entities.InteractionCentreView, ServiceName: "Vaccination", Count: 2, ValueSum: 2},
		}, nil
	}

	service := services.NewInteractionService(repo, newStubCentreRepo(), nil, nil, trackingConfig())

	result := service.Aggregate(context.Background(), 30)
	require.GreaterOrEqual(t, len(result), 3)

	// Equal counts, but contacts weigh 3x a click and 6x a view.
	assert.Equal(t, "Maternité", result[0].ServiceName)
	assert.Equal(t, "Radiologie", result[1].ServiceName)
	assert.Equal(t, "Vaccination", result[2].ServiceName)
	assert.InDelta(t, 6.0, result[0].Score, 0.001)
	assert.InDelta(t, 2.0, result[1].Score, 0.001)
	assert.InDelta(t, 1.0, result[2].Score, 0.001)
	assert.Equal(t, 2, result[0].Contacts)
}

func TestInteractionService_Aggregate_TiesKeepInsertionOrder(t *testing.T) {
	repo := newStubInteractionRepo()
	repo.countsFn = func(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error) {
		return []*entities.InteractionCount{
			{Type: entities.InteractionServiceClick, ServiceName: "Premier", Count: 1, ValueSum: 1},
			{Type: entities.InteractionServiceClick, ServiceName: "Second", Count: 1, ValueSum: 1},
		}, nil
	}

	service := services.NewInteractionService(repo, newStubCentreRepo(), nil, nil, trackingConfig())

	result := service.Aggregate(context.Background(), 30)
	require.GreaterOrEqual(t, len(result), 2)
	assert.Equal(t, "Premier", result[0].ServiceName)
	assert.Equal(t, "Second", result[1].ServiceName)
}

func TestInteractionService_Aggregate_PadsWithFallback(t *testing.T) {
	repo := newStubInteractionRepo()
	repo.countsFn = func(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error) {
		return []*entities.InteractionCount{
			{Type: entities.InteractionCentreContact, ServiceName: "Dentisterie", Count: 1, ValueSum: 1},
		}, nil
	}

	service := services.NewInteractionService(repo, newStubCentreRepo(), nil, nil, trackingConfig())

	result := service.Aggregate(context.Background(), 30)
	require.Len(t, result, 6)
	assert.Equal(t, "Dentisterie", result[0].ServiceName)
	assert.False(t, result[0].Fallback)
	for _, entry := range result[1:] {
		assert.True(t, entry.Fallback)
	}
}

func TestInteractionService_Aggregate_ErrorDegradesToFallback(t *testing.T) {
	repo := newStubInteractionRepo()
	repo.countsFn = func(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error) {
		return nil, assert.AnError
	}

	service := services.NewInteractionService(repo, newStubCentreRepo(), nil, nil, trackingConfig())

	result := service.Aggregate(context.Background(), 30)
	require.NotEmpty(t, result)
	for _, entry := range result {
		assert.True(t, entry.Fallback)
	}
}

func TestInteractionService_Aggregate_UsesCache(t *testing.T) {
	calls := 0
	repo := newStubInteractionRepo()
	repo.countsFn = func(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error) {
		calls++
		return []*entities.InteractionCount{
			{Type: entities.InteractionCentreContact, ServiceName: "Maternité", Count: 1, ValueSum: 1},
		}, nil
	}

	service := services.NewInteractionService(repo, newStubCentreRepo(), newStubCache(), nil, trackingConfig())

	first := service.Aggregate(context.Background(), 30)
	second := service.Aggregate(context.Background(), 30)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first[0].ServiceName, second[0].ServiceName)
}

func TestInteractionService_Analytics(t *testing.T) {
	repo := newStubInteractionRepo()
	repo.totalsFn = func(ctx context.Context, since time.Time) (map[entities.InteractionType]int, error) {
		return map[entities.InteractionType]int{entities.InteractionCentreView: 12}, nil
	}
	repo.countsFn = func(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error) {
		return []*entities.InteractionCount{
			{Type: entities.InteractionServiceSearch, ServiceName: "Urgences", Count: 4, ValueSum: 4},
		}, nil
	}
	repo.termsFn = func(ctx context.Context, since time.Time, limit int) ([]*entities.SearchTermCount, error) {
		return []*entities.SearchTermCount{{Term: "urgence", Count: 4}}, nil
	}
	repo.topViewedFn = func(ctx context.Context, since time.Time, limit int) (map[string]int, error) {
		return map[string]int{"c-1": 12}, nil
	}

	service := services.NewInteractionService(repo, newStubCentreRepo(), nil, nil, trackingConfig())

	summary, err := service.Analytics(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, summary.WindowDays)
	assert.Equal(t, 12, summary.TotalsByType[entities.InteractionCentreView])
	require.Len(t, summary.TopServices, 1)
	assert.Equal(t, "Urgences", summary.TopServices[0].ServiceName)
	assert.Equal(t, 4, summary.TopServices[0].Searches)
	require.Len(t, summary.TopSearchTerms, 1)
	assert.Equal(t, 12, summary.TopViewedCentres["c-1"])
}
