package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account roles. A role is fixed at registration.
const (
	RoleStudent  = "student"
	RoleEmployer = "employer"
)

// Roles lists every role an account may hold.
var Roles = []string{RoleStudent, RoleEmployer}

// User is the account record used for authentication and ownership.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Email     string    `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"type:text;not null" json:"-"`
	Role      string    `gorm:"type:text;not null;index;<-:create;check:role IN ('student', 'employer')" json:"role"`
	FirstName string    `gorm:"type:text" json:"first_name"`
	LastName  string    `gorm:"type:text" json:"last_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"-"`
}

// FullName joins first and last name, skipping empty parts.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail lower-cases and trims an email so uniqueness is
// case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AuthResponse is returned by register and login
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"access_token"`
}
