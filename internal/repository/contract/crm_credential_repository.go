package contract

import (
	"context"

	"contact-assistant-be/internal/entity"

	"github.com/google/uuid"
)

type CrmCredentialRepository interface {
	FindByUserAndProvider(ctx context.Context, userId uuid.UUID, provider string) (*entity.CrmCredential, error)
}
