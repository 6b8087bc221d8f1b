package model

import "time"

// Role values attached to user accounts.  The role is assigned once at
// account creation and consulted by the authorization middleware; no exposed
// operation changes it afterwards.
const (
	RoleAdmin  = "admin"  // provisions store accounts
	RoleStore  = "store"  // owns exactly one store and its catalog/orders
	RoleClient = "client" // browses stores, builds a cart and checks out
)

// ValidRole reports whether s is one of the known role strings.
func ValidRole(s string) bool {
	switch s {
	case RoleAdmin, RoleStore, RoleClient:
		return true
	}
	return false
}

// User represents an application user record as stored in the `users` table.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – access tier (admin, store or client).
//  IsActive     – whether the account is active.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user and carries expiry and revocation metadata.  The
// plain token is never stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
