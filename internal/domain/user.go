// Package domain holds the entities owned by the service layer: users,
// images, and annotations. Entities carry no persistence or transport
// concerns.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates the user roles known to the service.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the credential-store record. The auth service reads it and flips
// IsActive and the password hash; everything else is owned by the store.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	Is2FA        bool
	CreateAt     time.Time
	UpdateAt     time.Time
}
