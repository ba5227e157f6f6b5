package implementation

import (
	"context"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/mapper"
	"contact-assistant-be/internal/model"
	"contact-assistant-be/internal/repository/contract"
	"contact-assistant-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeetingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MeetingMapper
}

func NewMeetingRepository(db *gorm.DB) contract.MeetingRepository {
	return &MeetingRepositoryImpl{
		db:     db,
		mapper: mapper.NewMeetingMapper(),
	}
}

func (r *MeetingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// find always preloads the calendar event so callers never trigger extra lookups.
func (r *MeetingRepositoryImpl) find(ctx context.Context, specs ...specification.Specification) ([]*entity.Meeting, error) {
	var models []*model.Meeting
	query := r.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Select("meetings.*").
		Preload("CalendarEvent")
	query = r.applySpecifications(query, specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *MeetingRepositoryImpl) Create(ctx context.Context, meeting *entity.Meeting) error {
	m, err := r.mapper.ToModel(meeting)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit("CalendarEvent").Create(m).Error; err != nil {
		return err
	}
	meeting.Id = m.Id
	meeting.CreatedAt = m.CreatedAt
	return nil
}

func (r *MeetingRepositoryImpl) CreateCalendarEvent(ctx context.Context, event *entity.CalendarEvent) error {
	m := model.CalendarEvent{
		UserId:   event.UserId,
		Title:    event.Title,
		StartsAt: event.StartsAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	event.Id = m.Id
	event.CreatedAt = m.CreatedAt
	return nil
}

func (r *MeetingRepositoryImpl) FindAttendedBy(ctx context.Context, userId uuid.UUID, contactId int64, limit int) ([]*entity.Meeting, error) {
	return r.find(ctx,
		specification.MeetingOwnedBy{UserID: userId},
		specification.AttendedByContact{UserID: userId, ContactID: contactId},
		specification.MostRecentlyRecorded{},
		specification.Limit{N: limit},
	)
}

func (r *MeetingRepositoryImpl) FindByParticipantFirstName(ctx context.Context, userId uuid.UUID, token string, limit int) ([]*entity.Meeting, error) {
	return r.find(ctx,
		specification.MeetingOwnedBy{UserID: userId},
		specification.ParticipantFirstName{Token: token},
		specification.MostRecentlyRecorded{},
		specification.Limit{N: limit},
	)
}

func (r *MeetingRepositoryImpl) FindRecent(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.Meeting, error) {
	return r.find(ctx,
		specification.MeetingOwnedBy{UserID: userId},
		specification.MostRecentlyRecorded{},
		specification.Limit{N: limit},
	)
}
