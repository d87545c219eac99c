package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iroy-mg/iroy-backend/internal/adapters/database"
	"github.com/iroy-mg/iroy-backend/internal/adapters/search"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/postgres"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/typesense"
	"github.com/iroy-mg/iroy-backend/pkg/config"
)

// Reindexes the Typesense centres collection from Postgres. Run once after a
// bulk import, or on an interval alongside the API.
func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatalf("Invalid interval %q: %v", intervalValue, err)
		}
		if interval <= 0 {
			log.Fatalf("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Printf("Reindex failed: %v", err)
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Printf("Reindex complete. Next run in %s.", interval)

		select {
		case <-ctx.Done():
			log.Println("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	centreRepo := database.NewCentreAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	adapter := search.NewTypesenseAdapter(tsClient)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Println("Deleting centres collection before reindex")
		if err := adapter.DropCollection(ctx); err != nil {
			log.Printf("Warning: failed to delete collection: %v", err)
		}
	}

	if err := adapter.InitSchema(ctx); err != nil {
		return err
	}

	// Only approved listings are searchable.
	centres, _, err := centreRepo.List(ctx, repositories.CentreFilter{
		Status:       entities.StatusApproved,
		NoPagination: true,
	})
	if err != nil {
		return err
	}

	log.Printf("Indexing %d centres...", len(centres))

	indexed := 0
	for _, centre := range centres {
		if centre == nil {
			continue
		}
		if err := adapter.Index(ctx, centre); err != nil {
			log.Printf("Failed to index centre %s: %v", centre.ID, err)
			continue
		}
		indexed++
	}

	log.Printf("Indexing complete (%d/%d).", indexed, len(centres))
	return nil
}
