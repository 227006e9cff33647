package models

import "time"

type UserRole string

const (
	UserRoleUser      UserRole = "user"
	UserRoleGuide     UserRole = "guide"
	UserRoleLeadGuide UserRole = "lead-guide"
	UserRoleAdmin     UserRole = "admin"
)

// User is an account row. PasswordHash and the reset token fields never
// leave the server; response shapes live in the handlers package.
type User struct {
	ID                   string
	Name                 string
	Email                string
	Photo                *string
	Role                 UserRole
	PasswordHash         []byte
	PasswordChangedAt    *time.Time
	PasswordResetHash    *string
	PasswordResetExpires *time.Time
	Active               bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PasswordChangedSince reports whether the password was changed at or after
// the given instant. Tokens issued at or before a change are stale.
func (u User) PasswordChangedSince(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return !u.PasswordChangedAt.Before(issuedAt)
}
