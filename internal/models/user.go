package models

import "time"

// Role is user role
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is user entity
type User struct {
	ID        uint64
	Login     string
	Password  string
	Role      Role
	CreatedAt time.Time
}

// TokenPayload is authorization token payload
type TokenPayload struct {
	UserID uint64
	Role   Role
}

// IsAdmin reports whether token belongs to administrator
func (p *TokenPayload) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}
