package entity

import "time"

// Account statuses.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Role names seeded by the identity migration.
const (
	RoleVecino        = "vecino"
	RoleAdministrador = "administrador"
	RoleSuperAdmin    = "super_admin"
)

// RoleRank orders roles for promotion/demotion classification.
func RoleRank(name string) int {
	switch name {
	case RoleVecino:
		return 1
	case RoleAdministrador:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		return 0
	}
}

// Account is a row in the `accounts` table.
type Account struct {
	ID                  int64      `db:"id" json:"id"`
	FullName            string     `db:"full_name" json:"full_name"`
	Email               string     `db:"email" json:"email"`
	Phone               *string    `db:"phone" json:"phone,omitempty"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	RoleID              int64      `db:"role_id" json:"role_id"`
	RoleName            string     `db:"role_name" json:"role"`
	HouseID             *int64     `db:"house_id" json:"house_id,omitempty"`
	Status              string     `db:"status" json:"status"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// Role is reference data; never mutated after seeding.
type Role struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

// ProfileUpdate lists the profile fields to overwrite; nil fields are left alone.
type ProfileUpdate struct {
	FullName *string
	Email    *string
	Phone    *string
}

// Empty reports whether no field is set.
func (p ProfileUpdate) Empty() bool {
	return p.FullName == nil && p.Email == nil && p.Phone == nil
}
