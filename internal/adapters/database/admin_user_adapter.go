package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
	"github.com/iroy-mg/iroy-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/iroy-mg/iroy-backend/pkg/errors"
)

// AdminUserAdapter resolves back-office accounts from bearer tokens. Tokens
// are stored as SHA-256 digests, never in clear.
type AdminUserAdapter struct {
	client *postgres.Client
}

// NewAdminUserAdapter creates a new admin user adapter
func NewAdminUserAdapter(client *postgres.Client) repositories.AdminUserRepository {
	return &AdminUserAdapter{client: client}
}

// GetByToken resolves an active admin user from a bearer token.
func (a *AdminUserAdapter) GetByToken(ctx context.Context, token string) (*entities.AdminUser, error) {
	digest := sha256.Sum256([]byte(token))

	query := `
		SELECT id, email, name, role, is_active, created_at
		FROM admin_users
		WHERE token_hash = $1 AND is_active = true
	`

	user := &entities.AdminUser{}
	err := a.client.DB().QueryRowContext(ctx, query, hex.EncodeToString(digest[:])).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.IsActive,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, apperrors.NewUnauthorizedError("unknown or revoked token")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to resolve admin user", err)
	}

	return user, nil
}
