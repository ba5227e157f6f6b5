package contract

import (
	"context"
	"time"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ThreadRepository interface {
	Create(ctx context.Context, thread *entity.Thread) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thread, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thread, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	// SetTitleIfNull writes the title only while it is still unset and
	// reports whether this call set it.
	SetTitleIfNull(ctx context.Context, id uuid.UUID, title string) (bool, error)
}
