package entities

import "time"

// AdminRole is a back-office role.
type AdminRole string

const (
	RoleModerator  AdminRole = "moderator"
	RoleAdmin      AdminRole = "admin"
	RoleSuperAdmin AdminRole = "super_admin"
)

// AdminUser is a back-office account resolved from a bearer token.
type AdminUser struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Role      AdminRole `json:"role" db:"role"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HasRole reports whether the user holds at least the given role.
// Moderators can moderate, admins additionally manage records, super admins
// additionally manage destructive bulk operations.
func (u *AdminUser) HasRole(required AdminRole) bool {
	rank := map[AdminRole]int{
		RoleModerator:  1,
		RoleAdmin:      2,
		RoleSuperAdmin: 3,
	}
	return rank[u.Role] >= rank[required]
}
