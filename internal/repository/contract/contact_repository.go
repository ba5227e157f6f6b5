package contract

import (
	"context"

	"contact-assistant-be/internal/entity"
)

type ContactRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.Contact, error)
	FindByEmail(ctx context.Context, email string) (*entity.Contact, error)
	// FindOrCreateByEmail creates the contact on first observation and never duplicates it.
	FindOrCreateByEmail(ctx context.Context, email, name string) (*entity.Contact, error)
	CreateAttendance(ctx context.Context, attendance *entity.Attendance) error
}
