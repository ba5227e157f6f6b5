package model

import (
	"time"
)

type Contact struct {
	Id        int64     `gorm:"primaryKey;autoIncrement"`
	Name      string    `gorm:"type:varchar(255)"`
	Email     string    `gorm:"type:varchar(320);not null;uniqueIndex:idx_contacts_email"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Contact) TableName() string {
	return "contacts"
}
