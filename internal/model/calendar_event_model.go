package model

import (
	"time"

	"github.com/google/uuid"
)

type CalendarEvent struct {
	Id        int64      `gorm:"primaryKey;autoIncrement"`
	UserId    uuid.UUID  `gorm:"type:uuid;not null;index"` // Owner of the calendar
	Title     string     `gorm:"type:text"`
	StartsAt  *time.Time `gorm:"index"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
}

func (CalendarEvent) TableName() string {
	return "calendar_events"
}

type Attendance struct {
	Id              int64  `gorm:"primaryKey;autoIncrement"`
	ContactId       int64  `gorm:"not null;uniqueIndex:idx_attendances_contact_event,priority:1"`
	CalendarEventId int64  `gorm:"not null;uniqueIndex:idx_attendances_contact_event,priority:2;index"`
	DisplayName     string `gorm:"type:varchar(255)"`
	IsOrganizer     bool   `gorm:"default:false"`

	Contact       Contact       `gorm:"foreignKey:ContactId;constraint:OnDelete:CASCADE"`
	CalendarEvent CalendarEvent `gorm:"foreignKey:CalendarEventId;constraint:OnDelete:CASCADE"`
}

func (Attendance) TableName() string {
	return "attendances"
}
