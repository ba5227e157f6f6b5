package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Meeting struct {
	Id              int64                       `gorm:"primaryKey;autoIncrement"`
	UserId          uuid.UUID                   `gorm:"type:uuid;not null;index:idx_meetings_user_recorded,priority:1"`
	CalendarEventId *int64                      `gorm:"index"`
	Title           string                      `gorm:"type:text"`
	RecordedAt      *time.Time                  `gorm:"index:idx_meetings_user_recorded,priority:2"`
	DurationSeconds *int                        `gorm:"type:integer"`
	Participants    datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Transcript      datatypes.JSON              `gorm:"type:jsonb"`
	CreatedAt       time.Time                   `gorm:"autoCreateTime"`
	UpdatedAt       time.Time                   `gorm:"autoUpdateTime"`

	CalendarEvent *CalendarEvent `gorm:"foreignKey:CalendarEventId;constraint:OnDelete:SET NULL"`
}

func (Meeting) TableName() string {
	return "meetings"
}
