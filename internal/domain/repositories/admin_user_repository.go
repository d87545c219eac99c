package repositories

import (
	"context"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
)

// AdminUserRepository resolves back-office accounts.
type AdminUserRepository interface {
	// GetByToken resolves an active admin user from a bearer token.
	GetByToken(ctx context.Context, token string) (*entities.AdminUser, error)
}
