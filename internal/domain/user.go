package domain

import "time"

// UserRole differentiates regular requesters from dataspace administrators.
type UserRole string

const (
	UserRoleMember UserRole = "MEMBER"
	UserRoleAdmin  UserRole = "ADMIN"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for people who submit and work on requests.
type User struct {
	ID           string
	Dataspace    string
	Name         string
	Email        string
	PasswordHash string
	Role         UserRole
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user administers its dataspace.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
