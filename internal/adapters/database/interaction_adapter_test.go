package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iroy-mg/iroy-backend/internal/adapters/database"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/postgres"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewClientWithDB(db), mock
}

func TestInteractionAdapter_LogEvent(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewInteractionAdapter(client)

	mock.ExpectExec("INSERT INTO interactions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &entities.InteractionEvent{
		Type:        entities.InteractionCentreContact,
		ServiceName: "Consultation générale",
		SessionID:   "sess-1",
	}

	err := adapter.LogEvent(context.Background(), event)
	assert.NoError(t, err)
	// Defaults are filled in before the insert
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	assert.Equal(t, 1.0, event.Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInteractionAdapter_CountByServiceSince(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewInteractionAdapter(client)

	rows := sqlmock.NewRows([]string{"type", "service_name", "count", "sum"}).
		AddRow("center_contact", "Urgences", 2, 2.0).
		AddRow("service_click", "Urgences", 5, 5.0).
		AddRow("service_click", "Pédiatrie", 3, 3.0)

	mock.ExpectQuery("SELECT type, service_name, COUNT").
		WillReturnRows(rows)

	counts, err := adapter.CountByServiceSince(context.Background(), time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, counts, 3)
	assert.Equal(t, entities.InteractionCentreContact, counts[0].Type)
	assert.Equal(t, "Urgences", counts[0].ServiceName)
	assert.Equal(t, 2, counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInteractionAdapter_TopSearchTermsSince(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewInteractionAdapter(client)

	rows := sqlmock.NewRows([]string{"term", "count"}).
		AddRow("pharmacie", 12).
		AddRow("dentiste", 4)

	mock.ExpectQuery("SELECT lower\\(search_term\\), COUNT").
		WillReturnRows(rows)

	terms, err := adapter.TopSearchTermsSince(context.Background(), time.Now().AddDate(0, 0, -30), 10)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, "pharmacie", terms[0].Term)
	assert.Equal(t, 12, terms[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
