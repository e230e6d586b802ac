package model

import "time"

// Roles assignable to users.  MEMBER accounts may create and manage
// their own events; ADMIN accounts additionally manage facilities and
// other users' events.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
)

// User is an account in the system.  Authentication is email/password
// with the password stored as a bcrypt hash.  Inactive users cannot
// log in.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique login email, stored lower-cased.
//  PasswordHash – bcrypt hash of the password.
//  Name         – display name.
//  Role         – MEMBER or ADMIN.
//  IsActive     – whether the account may authenticate.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Name         string    // users.name
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
