// Package fake is an in-memory implementation of the repository contracts
// used by unit tests. It mirrors the scoping rules of the gorm repositories.
package fake

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/repository/contract"
	"contact-assistant-be/internal/repository/specification"
	"contact-assistant-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.Mutex

	contacts    map[int64]*entity.Contact
	events      map[int64]*entity.CalendarEvent
	attendances []*entity.Attendance
	meetings    []*entity.Meeting
	threads     map[uuid.UUID]*entity.Thread
	messages    []*entity.Message
	credentials []*entity.CrmCredential
	nextID      int64

	// Failure injection
	ContactErr       error
	MeetingErr       error
	CredentialErr    error
	MessageCreateErr error

	// Meetings replaces the meeting repository when set.
	Meetings contract.MeetingRepository

	// Counters
	MeetingQueries int
}

var _ unitofwork.RepositoryFactory = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		contacts: make(map[int64]*entity.Contact),
		events:   make(map[int64]*entity.CalendarEvent),
		threads:  make(map[uuid.UUID]*entity.Thread),
	}
}

func (s *Store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{s: s}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Seeding helpers

func (s *Store) AddContact(name, email string) *entity.Contact {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &entity.Contact{Id: s.id(), Name: name, Email: entity.NormalizeEmail(email), CreatedAt: time.Now()}
	s.contacts[c.Id] = c
	return c
}

func (s *Store) AddEvent(userId uuid.UUID, title string) *entity.CalendarEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &entity.CalendarEvent{Id: s.id(), UserId: userId, Title: title, CreatedAt: time.Now()}
	s.events[e.Id] = e
	return e
}

func (s *Store) Attend(contactId, eventId int64, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attendances = append(s.attendances, &entity.Attendance{
		Id: s.id(), ContactId: contactId, CalendarEventId: eventId, DisplayName: displayName,
	})
}

// AddMeeting stores a meeting; a zero Id is assigned.
func (s *Store) AddMeeting(m *entity.Meeting) *entity.Meeting {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Id == 0 {
		m.Id = s.id()
	} else if m.Id > s.nextID {
		s.nextID = m.Id
	}
	if m.CalendarEventId != nil {
		m.CalendarEvent = s.events[*m.CalendarEventId]
	}
	s.meetings = append(s.meetings, m)
	return m
}

func (s *Store) AddCredential(userId uuid.UUID, provider, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = append(s.credentials, &entity.CrmCredential{
		Id: uuid.New(), UserId: userId, Provider: provider, AccessToken: token, CreatedAt: time.Now(),
	})
}

func (s *Store) DeleteContact(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contacts, id)
}

func (s *Store) Thread(id uuid.UUID) *entity.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.threads[id]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

func (s *Store) Messages(threadId uuid.UUID) []*entity.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.Message
	for _, m := range s.messages {
		if m.ThreadId == threadId {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

type unitOfWork struct {
	s *Store
}

func (u *unitOfWork) Begin(ctx context.Context) error { return nil }
func (u *unitOfWork) Commit() error                   { return nil }
func (u *unitOfWork) Rollback() error                 { return nil }

func (u *unitOfWork) ContactRepository() contract.ContactRepository {
	return &contactRepository{s: u.s}
}

func (u *unitOfWork) MeetingRepository() contract.MeetingRepository {
	if u.s.Meetings != nil {
		return u.s.Meetings
	}
	return &meetingRepository{s: u.s}
}

func (u *unitOfWork) ThreadRepository() contract.ThreadRepository {
	return &threadRepository{s: u.s}
}

func (u *unitOfWork) MessageRepository() contract.MessageRepository {
	return &messageRepository{s: u.s}
}

func (u *unitOfWork) CrmCredentialRepository() contract.CrmCredentialRepository {
	return &credentialRepository{s: u.s}
}

// Contacts

type contactRepository struct{ s *Store }

func (r *contactRepository) FindByID(ctx context.Context, id int64) (*entity.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ContactErr != nil {
		return nil, r.s.ContactErr
	}
	c, ok := r.s.contacts[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *contactRepository) FindByEmail(ctx context.Context, email string) (*entity.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.ContactErr != nil {
		return nil, r.s.ContactErr
	}
	return r.findByEmailLocked(email), nil
}

func (r *contactRepository) findByEmailLocked(email string) *entity.Contact {
	normalized := entity.NormalizeEmail(email)
	if normalized == "" {
		return nil
	}
	for _, c := range r.s.contacts {
		if c.Email == normalized {
			cp := *c
			return &cp
		}
	}
	return nil
}

func (r *contactRepository) FindOrCreateByEmail(ctx context.Context, email, name string) (*entity.Contact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c := r.findByEmailLocked(email); c != nil {
		return c, nil
	}
	c := &entity.Contact{Id: r.s.id(), Name: name, Email: entity.NormalizeEmail(email), CreatedAt: time.Now()}
	r.s.contacts[c.Id] = c
	cp := *c
	return &cp, nil
}

func (r *contactRepository) CreateAttendance(ctx context.Context, attendance *entity.Attendance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	attendance.Id = r.s.id()
	cp := *attendance
	r.s.attendances = append(r.s.attendances, &cp)
	return nil
}

// Meetings

type meetingRepository struct{ s *Store }

func (r *meetingRepository) Create(ctx context.Context, meeting *entity.Meeting) error {
	r.s.AddMeeting(meeting)
	return nil
}

func (r *meetingRepository) CreateCalendarEvent(ctx context.Context, event *entity.CalendarEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event.Id = r.s.id()
	cp := *event
	r.s.events[event.Id] = &cp
	return nil
}

func (r *meetingRepository) query(userId uuid.UUID, limit int, keep func(m *entity.Meeting) bool) ([]*entity.Meeting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.MeetingQueries++
	if r.s.MeetingErr != nil {
		return nil, r.s.MeetingErr
	}
	var out []*entity.Meeting
	for _, m := range r.s.meetings {
		if m.UserId != userId || !keep(m) {
			continue
		}
		out = append(out, m)
	}
	entity.SortMeetingsNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *meetingRepository) FindAttendedBy(ctx context.Context, userId uuid.UUID, contactId int64, limit int) ([]*entity.Meeting, error) {
	return r.query(userId, limit, func(m *entity.Meeting) bool {
		if m.CalendarEventId == nil {
			return false
		}
		ev, ok := r.s.events[*m.CalendarEventId]
		if !ok || ev.UserId != userId {
			return false
		}
		for _, a := range r.s.attendances {
			if a.CalendarEventId == ev.Id && a.ContactId == contactId {
				return true
			}
		}
		return false
	})
}

func (r *meetingRepository) FindByParticipantFirstName(ctx context.Context, userId uuid.UUID, token string, limit int) ([]*entity.Meeting, error) {
	return r.query(userId, limit, func(m *entity.Meeting) bool {
		for _, p := range m.Participants {
			fields := strings.Fields(p)
			if len(fields) > 0 && strings.EqualFold(fields[0], token) {
				return true
			}
		}
		return false
	})
}

func (r *meetingRepository) FindRecent(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.Meeting, error) {
	return r.query(userId, limit, func(m *entity.Meeting) bool { return true })
}

// Threads

type threadRepository struct{ s *Store }

func (r *threadRepository) Create(ctx context.Context, thread *entity.Thread) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if thread.Id == uuid.Nil {
		thread.Id = uuid.New()
	}
	if thread.CreatedAt.IsZero() {
		thread.CreatedAt = time.Now()
	}
	cp := *thread
	r.s.threads[thread.Id] = &cp
	return nil
}

func (r *threadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.threads, id)
	return nil
}

func (r *threadRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Thread, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *threadRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Thread, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Thread
	for _, t := range r.s.threads {
		if matchThread(t, specs) {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastActivityAt.After(out[j].LastActivityAt) })
	return out, nil
}

func matchThread(t *entity.Thread, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if t.Id != s.ID {
				return false
			}
		case specification.UserOwnedBy:
			if t.UserId != s.UserID {
				return false
			}
		}
	}
	return true
}

func (r *threadRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.threads[id]; ok {
		t.LastActivityAt = at
	}
	return nil
}

func (r *threadRepository) SetTitleIfNull(ctx context.Context, id uuid.UUID, title string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.threads[id]
	if !ok || t.Title != nil {
		return false, nil
	}
	t.Title = &title
	return true, nil
}

// Messages

type messageRepository struct{ s *Store }

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.MessageCreateErr != nil {
		return r.s.MessageCreateErr
	}
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	cp := *message
	r.s.messages = append(r.s.messages, &cp)
	return nil
}

func (r *messageRepository) DeleteByThreadId(ctx context.Context, threadId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.ThreadId != threadId {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

// FindAll honours ByThreadID, ByRole, OrderBy on created_at and Limit.
func (r *messageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Message
	desc := false
	limit := 0
	for _, m := range r.s.messages {
		if matchMessage(m, specs) {
			cp := *m
			out = append(out, &cp)
		}
	}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OrderBy:
			desc = s.Desc
		case specification.Limit:
			limit = s.N
		}
	}
	if desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *messageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, m := range r.s.messages {
		if matchMessage(m, specs) {
			n++
		}
	}
	return n, nil
}

func matchMessage(m *entity.Message, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByThreadID:
			if m.ThreadId != s.ThreadID {
				return false
			}
		case specification.ByRole:
			if m.Role != s.Role {
				return false
			}
		}
	}
	return true
}

// Credentials

type credentialRepository struct{ s *Store }

func (r *credentialRepository) FindByUserAndProvider(ctx context.Context, userId uuid.UUID, provider string) (*entity.CrmCredential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.CredentialErr != nil {
		return nil, r.s.CredentialErr
	}
	for _, c := range r.s.credentials {
		if c.UserId == userId && c.Provider == provider {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}
