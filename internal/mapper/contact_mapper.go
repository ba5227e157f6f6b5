package mapper

import (
	"time"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/model"
)

type ContactMapper struct{}

func NewContactMapper() *ContactMapper {
	return &ContactMapper{}
}

func (m *ContactMapper) ToEntity(c *model.Contact) *entity.Contact {
	if c == nil {
		return nil
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		u := c.UpdatedAt
		updatedAt = &u
	}

	return &entity.Contact{
		Id:        c.Id,
		Name:      c.Name,
		Email:     c.Email,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *ContactMapper) ToModel(c *entity.Contact) *model.Contact {
	if c == nil {
		return nil
	}
	return &model.Contact{
		Id:        c.Id,
		Name:      c.Name,
		Email:     entity.NormalizeEmail(c.Email),
		CreatedAt: c.CreatedAt,
	}
}

func (m *ContactMapper) CrmCredentialToEntity(c *model.CrmCredential) *entity.CrmCredential {
	if c == nil {
		return nil
	}
	return &entity.CrmCredential{
		Id:          c.Id,
		UserId:      c.UserId,
		Provider:    c.Provider,
		AccessToken: c.AccessToken,
		InstanceURL: c.InstanceURL,
		ExpiresAt:   c.ExpiresAt,
		CreatedAt:   c.CreatedAt,
	}
}
