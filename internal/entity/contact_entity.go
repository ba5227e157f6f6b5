package entity

import (
	"strings"
	"time"
)

// Contact is a global identity keyed by normalized email.
type Contact struct {
	Id        int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// NormalizeEmail lower-cases and trims an email for use as the contact key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
