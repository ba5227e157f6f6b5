package mapper

import (
	"encoding/json"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/model"

	"gorm.io/datatypes"
)

type MeetingMapper struct{}

func NewMeetingMapper() *MeetingMapper {
	return &MeetingMapper{}
}

func (m *MeetingMapper) ToEntity(meeting *model.Meeting) *entity.Meeting {
	if meeting == nil {
		return nil
	}

	var transcript []entity.TranscriptSegment
	if len(meeting.Transcript) > 0 {
		if err := json.Unmarshal(meeting.Transcript, &transcript); err != nil {
			transcript = nil
		}
	}

	participants := make([]string, len(meeting.Participants))
	copy(participants, meeting.Participants)

	return &entity.Meeting{
		Id:              meeting.Id,
		UserId:          meeting.UserId,
		CalendarEventId: meeting.CalendarEventId,
		Title:           meeting.Title,
		RecordedAt:      meeting.RecordedAt,
		DurationSeconds: meeting.DurationSeconds,
		Participants:    participants,
		Transcript:      transcript,
		CalendarEvent:   m.CalendarEventToEntity(meeting.CalendarEvent),
		CreatedAt:       meeting.CreatedAt,
	}
}

func (m *MeetingMapper) ToEntities(meetings []*model.Meeting) []*entity.Meeting {
	entities := make([]*entity.Meeting, len(meetings))
	for i, mt := range meetings {
		entities[i] = m.ToEntity(mt)
	}
	return entities
}

func (m *MeetingMapper) ToModel(meeting *entity.Meeting) (*model.Meeting, error) {
	if meeting == nil {
		return nil, nil
	}

	var transcript datatypes.JSON
	if meeting.Transcript != nil {
		raw, err := json.Marshal(meeting.Transcript)
		if err != nil {
			return nil, err
		}
		transcript = datatypes.JSON(raw)
	}

	return &model.Meeting{
		Id:              meeting.Id,
		UserId:          meeting.UserId,
		CalendarEventId: meeting.CalendarEventId,
		Title:           meeting.Title,
		RecordedAt:      meeting.RecordedAt,
		DurationSeconds: meeting.DurationSeconds,
		Participants:    datatypes.JSONSlice[string](meeting.Participants),
		Transcript:      transcript,
		CreatedAt:       meeting.CreatedAt,
	}, nil
}

func (m *MeetingMapper) CalendarEventToEntity(e *model.CalendarEvent) *entity.CalendarEvent {
	if e == nil {
		return nil
	}
	return &entity.CalendarEvent{
		Id:        e.Id,
		UserId:    e.UserId,
		Title:     e.Title,
		StartsAt:  e.StartsAt,
		CreatedAt: e.CreatedAt,
	}
}
