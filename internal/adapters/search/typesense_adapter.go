package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	tsclient "github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/typesense"
)

const collectionName = "centres"

// TypesenseAdapter implements free-text centre search using Typesense. Only
// approved listings are indexed; the SQL path stays authoritative when the
// index is unavailable.
type TypesenseAdapter struct {
	client *tsclient.Client
}

var _ repositories.CentreSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "name", Type: "string"},
			{Name: "description", Type: "string"},
			{Name: "address", Type: "string"},
			{Name: "city", Type: "string", Facet: pointer.True()},
			{Name: "centre_type", Type: "string", Facet: pointer.True()},
			{Name: "services", Type: "string[]", Optional: pointer.True()},
			{Name: "updated_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("updated_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Search returns ids of approved centres matching the query, best match first.
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 50
	}

	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("name,description,address,services"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search centres: %w", err)
	}

	ids := []string{}
	if result.Hits == nil {
		return ids, nil
	}
	for _, hit := range *result.Hits {
		doc := *hit.Document
		if id, ok := doc["id"].(string); ok {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

// Index upserts an approved centre into the index
func (a *TypesenseAdapter) Index(ctx context.Context, centre *entities.Centre) error {
	document := map[string]interface{}{
		"id":          centre.ID,
		"name":        centre.Name,
		"description": centre.Description,
		"address":     strings.TrimSpace(centre.Address + " " + centre.City),
		"city":        centre.City,
		"centre_type": centre.CentreType,
		"services":    centre.Services,
		"updated_at":  centre.UpdatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index centre: %w", err)
	}

	return nil
}

// DropCollection deletes the whole collection; used by the reindexer's
// -reset flag.
func (a *TypesenseAdapter) DropCollection(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop typesense collection: %w", err)
	}
	return nil
}

// Delete removes a centre from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete centre from index: %w", err)
	}
	return nil
}
