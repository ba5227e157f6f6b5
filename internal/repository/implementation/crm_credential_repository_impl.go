package implementation

import (
	"context"
	"errors"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/mapper"
	"contact-assistant-be/internal/model"
	"contact-assistant-be/internal/repository/contract"
	"contact-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CrmCredentialRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ContactMapper
}

func NewCrmCredentialRepository(db *gorm.DB) contract.CrmCredentialRepository {
	return &CrmCredentialRepositoryImpl{
		db:     db,
		mapper: mapper.NewContactMapper(),
	}
}

func (r *CrmCredentialRepositoryImpl) FindByUserAndProvider(ctx context.Context, userId uuid.UUID, provider string) (*entity.CrmCredential, error) {
	var m model.CrmCredential
	query := r.db.WithContext(ctx)
	query = specification.UserOwnedBy{UserID: userId}.Apply(query)
	query = specification.ByProvider{Provider: provider}.Apply(query)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.CrmCredentialToEntity(&m), nil
}
