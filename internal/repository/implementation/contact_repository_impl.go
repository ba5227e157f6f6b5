package implementation

import (
	"context"
	"errors"
	"fmt"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/mapper"
	"contact-assistant-be/internal/model"
	"contact-assistant-be/internal/repository/contract"
	"contact-assistant-be/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContactRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ContactMapper
}

func NewContactRepository(db *gorm.DB) contract.ContactRepository {
	return &ContactRepositoryImpl{
		db:     db,
		mapper: mapper.NewContactMapper(),
	}
}

func (r *ContactRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.Contact, error) {
	var m model.Contact
	query := r.db.WithContext(ctx)
	for _, spec := range specs {
		query = spec.Apply(query)
	}
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ContactRepositoryImpl) FindByID(ctx context.Context, id int64) (*entity.Contact, error) {
	return r.findOne(ctx, specification.ByNumericID{ID: id})
}

func (r *ContactRepositoryImpl) FindByEmail(ctx context.Context, email string) (*entity.Contact, error) {
	normalized := entity.NormalizeEmail(email)
	if normalized == "" {
		return nil, nil
	}
	return r.findOne(ctx, specification.ByEmail{Email: normalized})
}

func (r *ContactRepositoryImpl) FindOrCreateByEmail(ctx context.Context, email, name string) (*entity.Contact, error) {
	normalized := entity.NormalizeEmail(email)
	if normalized == "" {
		return nil, fmt.Errorf("contact email is required")
	}

	m := model.Contact{Email: normalized, Name: name}
	// Concurrent first observations race on the unique index; the loser reads the winner's row
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(&m).Error
	if err != nil {
		return nil, err
	}
	return r.FindByEmail(ctx, normalized)
}

func (r *ContactRepositoryImpl) CreateAttendance(ctx context.Context, attendance *entity.Attendance) error {
	m := model.Attendance{
		ContactId:       attendance.ContactId,
		CalendarEventId: attendance.CalendarEventId,
		DisplayName:     attendance.DisplayName,
		IsOrganizer:     attendance.IsOrganizer,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Contact", "CalendarEvent").
		Create(&m).Error
	if err != nil {
		return err
	}
	attendance.Id = m.Id
	return nil
}
