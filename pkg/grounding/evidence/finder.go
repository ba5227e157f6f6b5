package evidence

import (
	"context"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/pkg/logger"
	"contact-assistant-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const logModule = "EVIDENCE"

// Tier labels how a set of meetings was found.
type Tier string

const (
	TierConfirmed Tier = "confirmed"
	TierHeuristic Tier = "heuristic"
	TierRecent    Tier = "recent"
	TierNone      Tier = "none"
)

type Limits struct {
	Confirmed int
	Heuristic int
	Recent    int
}

func DefaultLimits() Limits {
	return Limits{Confirmed: 10, Heuristic: 5, Recent: 10}
}

// Finder runs the three meeting queries. Every query is scoped to the
// acting user. Failures are logged and yield no meetings.
type Finder struct {
	factory unitofwork.RepositoryFactory
	limits  Limits
	logger  logger.ILogger
}

func NewFinder(factory unitofwork.RepositoryFactory, limits Limits, log logger.ILogger) *Finder {
	defaults := DefaultLimits()
	if limits.Confirmed <= 0 {
		limits.Confirmed = defaults.Confirmed
	}
	if limits.Heuristic <= 0 {
		limits.Heuristic = defaults.Heuristic
	}
	if limits.Recent <= 0 {
		limits.Recent = defaults.Recent
	}
	return &Finder{
		factory: factory,
		limits:  limits,
		logger:  log,
	}
}

func (f *Finder) Limits() Limits {
	return f.limits
}

// Confirmed returns meetings whose calendar event has an attendance link
// to the contact.
func (f *Finder) Confirmed(ctx context.Context, userId uuid.UUID, contactId int64) []*entity.Meeting {
	uow := f.factory.NewUnitOfWork(ctx)
	meetings, err := uow.MeetingRepository().FindAttendedBy(ctx, userId, contactId, f.limits.Confirmed)
	if err != nil {
		f.warn("Confirmed meeting lookup failed", userId, err, map[string]interface{}{"contact_id": contactId})
		return nil
	}
	return f.finish(userId, meetings, f.limits.Confirmed, nil)
}

// Heuristic returns meetings where some participant shares the target's
// first name.
func (f *Finder) Heuristic(ctx context.Context, userId uuid.UUID, name string) []*entity.Meeting {
	token := FirstToken(name)
	if token == "" {
		return nil
	}

	uow := f.factory.NewUnitOfWork(ctx)
	meetings, err := uow.MeetingRepository().FindByParticipantFirstName(ctx, userId, token, f.limits.Heuristic)
	if err != nil {
		f.warn("Heuristic meeting lookup failed", userId, err, map[string]interface{}{"token": token})
		return nil
	}
	return f.finish(userId, meetings, f.limits.Heuristic, func(m *entity.Meeting) bool {
		return AnyParticipantMatches(m, token)
	})
}

// Recent returns the user's latest meetings without any contact filter.
func (f *Finder) Recent(ctx context.Context, userId uuid.UUID) []*entity.Meeting {
	uow := f.factory.NewUnitOfWork(ctx)
	meetings, err := uow.MeetingRepository().FindRecent(ctx, userId, f.limits.Recent)
	if err != nil {
		f.warn("Recent meeting lookup failed", userId, err, nil)
		return nil
	}
	return f.finish(userId, meetings, f.limits.Recent, nil)
}

// finish drops foreign or nil rows, dedupes by id, sorts newest first
// and applies the cap.
func (f *Finder) finish(userId uuid.UUID, meetings []*entity.Meeting, limit int, keep func(*entity.Meeting) bool) []*entity.Meeting {
	if len(meetings) == 0 {
		return nil
	}
	seen := make(map[int64]bool, len(meetings))
	out := make([]*entity.Meeting, 0, len(meetings))
	for _, m := range meetings {
		if m == nil || m.UserId != userId || seen[m.Id] {
			continue
		}
		if keep != nil && !keep(m) {
			continue
		}
		seen[m.Id] = true
		out = append(out, m)
	}
	entity.SortMeetingsNewestFirst(out)
	if len(out) > limit {
		out = out[:limit]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (f *Finder) warn(message string, userId uuid.UUID, err error, details map[string]interface{}) {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["user_id"] = userId.String()
	details["error"] = err.Error()
	f.logger.Warn(logModule, message, details)
}
