package entity

import (
	"time"

	"github.com/google/uuid"
)

type Thread struct {
	Id             uuid.UUID
	UserId         uuid.UUID
	Title          *string
	LastActivityAt time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

func (t *Thread) HasTitle() bool {
	return t.Title != nil && *t.Title != ""
}
