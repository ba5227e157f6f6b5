package model

import (
	"time"

	"github.com/google/uuid"
)

type CrmCredential struct {
	Id          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_crm_credentials_user_provider,priority:1"`
	Provider    string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_crm_credentials_user_provider,priority:2"`
	AccessToken string     `gorm:"type:text;not null"`
	InstanceURL string     `gorm:"type:text"`
	ExpiresAt   *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (CrmCredential) TableName() string {
	return "crm_credentials"
}
