package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/iroy-mg/iroy-backend/internal/domain/entities"
	"github.com/iroy-mg/iroy-backend/internal/domain/repositories"
)

type contextKey string

const adminUserKey contextKey = "admin_user"

// AdminUserFromContext returns the authenticated back-office user, if any.
func AdminUserFromContext(ctx context.Context) *entities.AdminUser {
	user, _ := ctx.Value(adminUserKey).(*entities.AdminUser)
	return user
}

// AuthMiddleware gates admin routes behind a bearer token and a minimum role.
type AuthMiddleware struct {
	users repositories.AdminUserRepository
}

// NewAuthMiddleware creates the auth middleware
func NewAuthMiddleware(users repositories.AdminUserRepository) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// RequireRole wraps a handler so only callers holding at least the given role
// reach it. Missing or bad credentials get 401, an insufficient role 403.
func (m *AuthMiddleware) RequireRole(role entities.AdminRole, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			authError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		user, err := m.users.GetByToken(r.Context(), token)
		if err != nil {
			authError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		if !user.HasRole(role) {
			authError(w, http.StatusForbidden, "insufficient role")
			return
		}

		ctx := context.WithValue(r.Context(), adminUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func authError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
