package bundle

import (
	"context"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/pkg/crm"
	"contact-assistant-be/pkg/grounding/evidence"
	"contact-assistant-be/pkg/grounding/resolver"

	"github.com/google/uuid"
)

type ContactResolver interface {
	Resolve(ctx context.Context, userId uuid.UUID, in resolver.Input) resolver.Decision
}

type MeetingFinder interface {
	Confirmed(ctx context.Context, userId uuid.UUID, contactId int64) []*entity.Meeting
	Heuristic(ctx context.Context, userId uuid.UUID, name string) []*entity.Meeting
	Recent(ctx context.Context, userId uuid.UUID) []*entity.Meeting
}

type SnapshotGatherer interface {
	Gather(ctx context.Context, userId uuid.UUID, email string) *crm.Snapshot
}

// Assembler composes resolver, meeting finder and CRM gatherer output.
// It does no I/O of its own and caches nothing between calls.
type Assembler struct {
	resolver ContactResolver
	meetings MeetingFinder
	crm      SnapshotGatherer
}

func NewAssembler(r ContactResolver, meetings MeetingFinder, gatherer SnapshotGatherer) *Assembler {
	return &Assembler{
		resolver: r,
		meetings: meetings,
		crm:      gatherer,
	}
}

func (a *Assembler) Assemble(ctx context.Context, userId uuid.UUID, mention entity.Mention) *ContextBundle {
	d := a.resolver.Resolve(ctx, userId, resolver.InputFromMention(mention))
	return a.FromDecision(ctx, userId, d)
}

func (a *Assembler) FromDecision(ctx context.Context, userId uuid.UUID, d resolver.Decision) *ContextBundle {
	b := &ContextBundle{
		Case:     d.Case,
		Contact:  d.Contact,
		Snapshot: d.Snapshot,
		Tier:     evidence.TierNone,
	}

	switch d.Case {
	case resolver.CaseContactID, resolver.CaseEmail:
		if b.Snapshot == nil && d.Email != "" {
			b.Snapshot = a.crm.Gather(ctx, userId, d.Email)
		}
		a.confirmed(ctx, userId, b, d.EvidenceContact)
	case resolver.CaseSnapshotWithEmail:
		a.confirmed(ctx, userId, b, d.EvidenceContact)
	case resolver.CaseRecent:
		if b.Meetings = a.meetings.Recent(ctx, userId); len(b.Meetings) > 0 {
			b.Tier = evidence.TierRecent
		}
	}

	// heuristic evidence never sits next to primary evidence
	if len(b.Meetings) == 0 && d.Name != "" {
		if b.Heuristic = a.meetings.Heuristic(ctx, userId, d.Name); len(b.Heuristic) > 0 {
			b.HeuristicName = evidence.FirstToken(d.Name)
			b.Tier = evidence.TierHeuristic
		}
	}
	return b
}

func (a *Assembler) confirmed(ctx context.Context, userId uuid.UUID, b *ContextBundle, contact *entity.Contact) {
	if contact == nil {
		return
	}
	if b.Meetings = a.meetings.Confirmed(ctx, userId, contact.Id); len(b.Meetings) > 0 {
		b.Tier = evidence.TierConfirmed
	}
}
