package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a sign-in capable account row. Role and tenant membership live
// with the identity resolver, not here.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PasswordMatches checks a candidate password against the stored hash.
func (u *User) PasswordMatches(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// CanSignIn reports whether the account may authenticate.
func (u *User) CanSignIn() bool {
	return u.IsActive
}
