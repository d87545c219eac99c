package handlers_test

import (
	"context"
	"time"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	apperrors "github.com/iroy-mg/iroy-backend/pkg/errors"
)

// stubCentreRepo is an in-memory CentreRepository for handler tests.
type stubCentreRepo struct {
	centres map[string]*entities.Centre
	listFn  func(ctx context.Context, filter repositories.CentreFilter) ([]*entities.Centre, int, error)

	created       []*entities.Centre
	statusChanges map[string]entities.CentreStatus
	deleted       []string
	views         map[string]int
}

func newStubCentreRepo() *stubCentreRepo {
	return &stubCentreRepo{
		centres:       map[string]*entities.Centre{},
		statusChanges: map[string]entities.CentreStatus{},
		views:         map[string]int{},
	}
}

func (r *stubCentreRepo) Create(ctx context.Context, centre *entities.Centre) error {
	if centre.ID == "" {
		centre.ID = "generated-id"
	}
	r.created = append(r.created, centre)
	r.centres[centre.ID] = centre
	return nil
}

func (r *stubCentreRepo) GetByID(ctx context.Context, id string) (*entities.Centre, error) {
	if c, ok := r.centres[id]; ok {
		return c, nil
	}
	return nil, apperrors.NewNotFoundError("centre not found")
}

func (r *stubCentreRepo) Update(ctx context.Context, centre *entities.Centre) error {
	if _, ok := r.centres[centre.ID]; !ok {
		return apperrors.NewNotFoundError("centre not found")
	}
	r.centres[centre.ID] = centre
	return nil
}

func (r *stubCentreRepo) UpdateStatus(ctx context.Context, id string, status entities.CentreStatus) error {
	if _, ok := r.centres[id]; !ok {
		return apperrors.NewNotFoundError("centre not found")
	}
	r.statusChanges[id] = status
	r.centres[id].Status = status
	return nil
}

func (r *stubCentreRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.centres[id]; !ok {
		return apperrors.NewNotFoundError("centre not found")
	}
	delete(r.centres, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *stubCentreRepo) List(ctx context.Context, filter repositories.CentreFilter) ([]*entities.Centre, int, error) {
	if r.listFn != nil {
		return r.listFn(ctx, filter)
	}
	out := make([]*entities.Centre, 0, len(r.centres))
	for _, c := range r.centres {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *stubCentreRepo) IncrementViewCount(ctx context.Context, id string) error {
	r.views[id]++
	return nil
}

func (r *stubCentreRepo) CountByStatus(ctx context.Context) (map[entities.CentreStatus]int, error) {
	counts := map[entities.CentreStatus]int{}
	for _, c := range r.centres {
		counts[c.Status]++
	}
	return counts, nil
}

func (r *stubCentreRepo) CountByType(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, c := range r.centres {
		counts[c.CentreType]++
	}
	return counts, nil
}

func (r *stubCentreRepo) CountByCity(ctx context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, c := range r.centres {
		counts[c.City]++
	}
	return counts, nil
}

// stubInteractionRepo collects logged events synchronously observable via a
// buffered channel.
type stubInteractionRepo struct {
	logged chan *entities.InteractionEvent
}

func newStubInteractionRepo() *stubInteractionRepo {
	return &stubInteractionRepo{logged: make(chan *entities.InteractionEvent, 16)}
}

func (r *stubInteractionRepo) LogEvent(ctx context.Context, event *entities.InteractionEvent) error {
	r.logged <- event
	return nil
}

func (r *stubInteractionRepo) CountByServiceSince(ctx context.Context, since time.Time) ([]*entities.InteractionCount, error) {
	return []*entities.InteractionCount{
		{Type: entities.InteractionCentreContact, ServiceName: "Urgences", Count: 3, ValueSum: 3},
	}, nil
}

func (r *stubInteractionRepo) CountByTypeSince(ctx context.Context, since time.Time) (map[entities.InteractionType]int, error) {
	return map[entities.InteractionType]int{entities.InteractionCentreView: 5}, nil
}

func (r *stubInteractionRepo) TopSearchTermsSince(ctx context.Context, since time.Time, limit int) ([]*entities.SearchTermCount, error) {
	return []*entities.SearchTermCount{{Term: "urgence", Count: 3}}, nil
}

func (r *stubInteractionRepo) TopViewedCentresSince(ctx context.Context, since time.Time, limit int) (map[string]int, error) {
	return map[string]int{"c-1": 5}, nil
}

// stubAdminUserRepo resolves a fixed token table.
type stubAdminUserRepo struct {
	users map[string]*entities.AdminUser
}

func (r *stubAdminUserRepo) GetByToken(ctx context.Context, token string) (*entities.AdminUser, error) {
	if u, ok := r.users[token]; ok {
		return u, nil
	}
	return nil, apperrors.NewUnauthorizedError("invalid token")
}
