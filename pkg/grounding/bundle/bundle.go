// Package bundle assembles the grounding context for one chat turn.
package bundle

import (
	"contact-assistant-be/internal/entity"
	"contact-assistant-be/pkg/crm"
	"contact-assistant-be/pkg/grounding/evidence"
	"contact-assistant-be/pkg/grounding/resolver"
)

// ContextBundle is the request-scoped grounding data. Meetings holds the
// confirmed meetings for a contact, or the user's recent meetings when the
// turn has no subject. Heuristic is only ever filled when Meetings is empty.
type ContextBundle struct {
	Case          resolver.Case
	Contact       *entity.Contact
	Snapshot      *crm.Snapshot
	Meetings      []*entity.Meeting
	Heuristic     []*entity.Meeting
	HeuristicName string
	Tier          evidence.Tier
}

// HasSubject reports whether the turn is about a specific contact.
func (b *ContextBundle) HasSubject() bool {
	return b.Contact != nil || b.Snapshot != nil
}

// Surfaced returns every meeting shown to the model, primary first.
func (b *ContextBundle) Surfaced() []*entity.Meeting {
	out := make([]*entity.Meeting, 0, len(b.Meetings)+len(b.Heuristic))
	out = append(out, b.Meetings...)
	return append(out, b.Heuristic...)
}
