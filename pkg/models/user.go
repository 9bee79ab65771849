package models

// Role determines which grants the ability evaluator builds for a user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAgent      Role = "agent"
	RolePharmacist Role = "pharmacist"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RolePharmacist:
		return true
	}
	return false
}

// User is an authenticated principal. The password hash never leaves the
// backend in API responses.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}
