package entity

import (
	"time"

	"github.com/google/uuid"
)

// CrmCredential is an OAuth credential a user granted for one CRM provider.
type CrmCredential struct {
	Id          uuid.UUID
	UserId      uuid.UUID
	Provider    string
	AccessToken string
	InstanceURL string
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}
