package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/iroy-mg/iroy-backend/internal/adapters/database"
	"github.com/iroy-mg/iroy-backend/internal/adapters/search"
	"github.com/iroy-mg/iroy-backend/internal/application/services"
	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/postgres"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/typesense"
	"github.com/iroy-mg/iroy-backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	var searchRepo repositories.CentreSearchRepository
	if cfg.Typesense.URL != "" {
		tsClient, err := typesense.NewClient(&cfg.Typesense)
		if err != nil {
			log.Printf("Warning: Typesense unavailable, seeding without index: %v", err)
		} else {
			adapter := search.NewTypesenseAdapter(tsClient)
			if err := adapter.InitSchema(context.Background()); err != nil {
				log.Printf("Warning: failed to init Typesense schema: %v", err)
			}
			searchRepo = adapter
		}
	}

	centreRepo := database.NewCentreAdapter(pgClient)
	centreService := services.NewCentreService(centreRepo, searchRepo)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				interactions,
				centres
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	centres := []entities.Centre{
		{
			ID:           uuid.New().String(),
			Name:         "Hôpital Joseph Ravoahangy Andrianavalona (HJRA)",
			Description:  "Centre hospitalier universitaire, urgences chirurgicales 24h/24.",
			CentreType:   entities.CentreTypeHospital,
			Address:      "Rue Patrice Lumumba, Ampefiloha",
			City:         "Antananarivo",
			District:     "Ampefiloha",
			Phone:        "+261 20 22 235 55",
			Location:     &entities.Location{Latitude: -18.9146, Longitude: 47.5208},
			Services:     []string{"Urgences", "Chirurgie", "Radiologie", "Laboratoire d'analyses"},
			Specialties:  []string{"Traumatologie", "Neurochirurgie"},
			Emergency24h: true,
			Status:       entities.StatusApproved,
		},
		{
			ID:           uuid.New().String(),
			Name:         "CHU Joseph Raseta Befelatanana",
			Description:  "Hôpital public de référence en médecine interne et maternité.",
			CentreType:   entities.CentreTypeHospital,
			Address:      "Rue Andriamifidy, Befelatanana",
			City:         "Antananarivo",
			District:     "Befelatanana",
			Phone:        "+261 20 22 223 84",
			Location:     &entities.Location{Latitude: -18.9042, Longitude: 47.5105},
			Services:     []string{"Maternité", "Pédiatrie", "Consultation générale", "Vaccination"},
			Emergency24h: true,
			Status:       entities.StatusApproved,
		},
		{
			ID:          uuid.New().String(),
			Name:        "Pharmacie Métropole",
			Description: "Pharmacie de garde du centre-ville.",
			CentreType:  entities.CentreTypePharmacy,
			Address:     "Avenue de l'Indépendance, Analakely",
			City:        "Antananarivo",
			District:    "Analakely",
			Phone:       "+261 20 22 200 25",
			Location:    &entities.Location{Latitude: -18.9081, Longitude: 47.5253},
			Services:    []string{"Pharmacie de garde", "Parapharmacie"},
			Status:      entities.StatusApproved,
		},
		{
			ID:                   uuid.New().String(),
			Name:                 "Polyclinique d'Ilafy",
			Description:          "Clinique privée, plateau technique d'imagerie et bloc opératoire.",
			CentreType:           entities.CentreTypeClinic,
			Address:              "Route d'Ambohimanga, Ilafy",
			City:                 "Antananarivo",
			District:             "Ilafy",
			Phone:                "+261 20 22 425 66",
			WhatsApp:             "+261 34 05 425 66",
			Location:             &entities.Location{Latitude: -18.8567, Longitude: 47.5500},
			Services:             []string{"Consultation générale", "Radiologie", "Échographie", "Chirurgie"},
			WheelchairAccessible: true,
			Parking:              true,
			Status:               entities.StatusApproved,
		},
		{
			ID:           uuid.New().String(),
			Name:         "CHU Tambohobe Fianarantsoa",
			Description:  "Centre hospitalier universitaire de la région Haute Matsiatra.",
			CentreType:   entities.CentreTypeHospital,
			Address:      "Tambohobe",
			City:         "Fianarantsoa",
			Phone:        "+261 20 75 506 92",
			Location:     &entities.Location{Latitude: -21.4427, Longitude: 47.0857},
			Services:     []string{"Urgences", "Maternité", "Laboratoire d'analyses"},
			Emergency24h: true,
			Status:       entities.StatusApproved,
		},
		{
			ID:          uuid.New().String(),
			Name:        "Laboratoire d'Analyses Médicales Toamasina",
			Description: "Analyses biologiques et prélèvements à domicile.",
			CentreType:  entities.CentreTypeLaboratory,
			Address:     "Boulevard Joffre",
			City:        "Toamasina",
			Phone:       "+261 20 53 312 40",
			Location:    &entities.Location{Latitude: -18.1492, Longitude: 49.4023},
			Services:    []string{"Laboratoire d'analyses", "Prélèvement à domicile"},
			Status:      entities.StatusApproved,
		},
		{
			ID:          uuid.New().String(),
			Name:        "Centre de Santé de Base Mahajanga",
			Description: "Soins de proximité et vaccination.",
			CentreType:  entities.CentreTypeHealthPost,
			Address:     "Quartier Mahabibo",
			City:        "Mahajanga",
			Phone:       "+261 20 62 224 10",
			Location:    &entities.Location{Latitude: -15.7167, Longitude: 46.3167},
			Services:    []string{"Consultation générale", "Vaccination", "Pédiatrie"},
			Status:      entities.StatusApproved,
		},
	}

	created := 0
	for i := range centres {
		c := centres[i]
		c.CreatedAt = time.Now()
		c.UpdatedAt = time.Now()
		if err := centreService.Create(ctx, &c); err != nil {
			log.Printf("Failed to create centre %s: %v", c.Name, err)
			continue
		}
		created++
	}

	seedAdminUsers(ctx, pgClient)

	log.Printf("Seeding completed: %d centres created", created)
}

// seedAdminUsers inserts the default back-office accounts. Tokens come from
// the environment so none end up hardcoded in the repository.
func seedAdminUsers(ctx context.Context, pgClient *postgres.Client) {
	accounts := []struct {
		email, name string
		role        entities.AdminRole
		tokenEnv    string
	}{
		{"moderateur@iroy.mg", "Modérateur", entities.RoleModerator, "SEED_MODERATOR_TOKEN"},
		{"admin@iroy.mg", "Administrateur", entities.RoleAdmin, "SEED_ADMIN_TOKEN"},
		{"direction@iroy.mg", "Direction", entities.RoleSuperAdmin, "SEED_SUPER_ADMIN_TOKEN"},
	}

	for _, a := range accounts {
		token := os.Getenv(a.tokenEnv)
		if token == "" {
			log.Printf("Skipping admin account %s: %s not set", a.email, a.tokenEnv)
			continue
		}
		digest := sha256.Sum256([]byte(token))
		_, err := pgClient.DB().ExecContext(ctx, `
			INSERT INTO admin_users (id, email, name, role, token_hash, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, true, NOW())
			ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role, token_hash = EXCLUDED.token_hash
		`, uuid.New().String(), a.email, a.name, a.role, hex.EncodeToString(digest[:]))
		if err != nil {
			log.Printf("Failed to seed admin account %s: %v", a.email, err)
		}
	}
}
