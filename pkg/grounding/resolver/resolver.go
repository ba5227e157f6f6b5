// Package resolver decides which contact a chat message is about.
package resolver

import (
	"context"
	"strings"

	"contact-assistant-be/internal/entity"
	"contact-assistant-be/internal/pkg/logger"
	"contact-assistant-be/internal/repository/unitofwork"
	"contact-assistant-be/pkg/crm"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const logModule = "RESOLVER"

var emailCheck = validator.New()

// Case names the rule that produced a Decision.
type Case string

const (
	CaseContactID         Case = "contact_id"
	CaseSnapshotWithEmail Case = "snapshot_with_email"
	CaseSnapshotOnly      Case = "snapshot_only"
	CaseEmail             Case = "email"
	CaseRecent            Case = "recent"
)

// Decision is the outcome of the cascade.
//
// Contact is the subject shown to the model. EvidenceContact is the local
// contact whose attendance links supply confirmed meetings; it differs from
// Contact only for CaseSnapshotWithEmail, where the snapshot is the subject
// but a local contact with the same email may still hold meeting history.
type Decision struct {
	Case            Case
	Contact         *entity.Contact
	EvidenceContact *entity.Contact
	Snapshot        *crm.Snapshot
	Email           string
	Name            string
	StaleContactId  *int64
}

// Input is the part of a message's metadata the cascade looks at.
type Input struct {
	ContactId *int64
	Email     string
	Snapshot  *crm.Snapshot
	Name      string
}

// InputFromMention normalizes a mention. Prefetched CRM data is converted
// to a typed snapshot here so nothing downstream sees raw keys.
func InputFromMention(m entity.Mention) Input {
	in := Input{
		ContactId: m.ContactId,
		Email:     mentionEmail(m.Email),
		Name:      strings.TrimSpace(m.Name),
	}
	if len(m.CrmData) > 0 {
		in.Snapshot = crm.NormalizeRecord("mention", m.CrmData)
	}
	return in
}

type rule struct {
	name  Case
	when  func(in Input) bool
	apply func(ctx context.Context, r *Resolver, in Input) (Decision, bool)
}

// rules are evaluated top to bottom and the first rule whose guard holds
// wins. Only the contact id rule can decline, when the id is stale.
var rules = []rule{
	{
		name: CaseContactID,
		when: func(in Input) bool { return in.ContactId != nil },
		apply: func(ctx context.Context, r *Resolver, in Input) (Decision, bool) {
			contact := r.findContact(ctx, *in.ContactId)
			if contact == nil {
				return Decision{}, false
			}
			return Decision{
				Case:            CaseContactID,
				Contact:         contact,
				EvidenceContact: contact,
				Snapshot:        in.Snapshot,
				Email:           firstNonEmpty(in.Email, contact.Email),
				Name:            firstNonEmpty(in.Name, snapshotName(in.Snapshot), contact.Name),
			}, true
		},
	},
	{
		name: CaseSnapshotWithEmail,
		when: func(in Input) bool { return in.Snapshot != nil && usableEmail(in) != "" },
		apply: func(ctx context.Context, r *Resolver, in Input) (Decision, bool) {
			email := usableEmail(in)
			return Decision{
				Case:            CaseSnapshotWithEmail,
				EvidenceContact: r.findContactByEmail(ctx, email),
				Snapshot:        in.Snapshot,
				Email:           email,
				Name:            firstNonEmpty(in.Name, in.Snapshot.Name),
			}, true
		},
	},
	{
		name: CaseSnapshotOnly,
		when: func(in Input) bool { return in.Snapshot != nil },
		apply: func(ctx context.Context, r *Resolver, in Input) (Decision, bool) {
			return Decision{
				Case:     CaseSnapshotOnly,
				Snapshot: in.Snapshot,
				Name:     firstNonEmpty(in.Name, in.Snapshot.Name),
			}, true
		},
	},
	{
		name: CaseEmail,
		when: func(in Input) bool { return in.Email != "" },
		apply: func(ctx context.Context, r *Resolver, in Input) (Decision, bool) {
			contact := r.findContactByEmail(ctx, in.Email)
			d := Decision{
				Case:            CaseEmail,
				Contact:         contact,
				EvidenceContact: contact,
				Email:           in.Email,
				Name:            in.Name,
			}
			if contact != nil {
				d.Name = firstNonEmpty(in.Name, contact.Name)
			}
			return d, true
		},
	},
	{
		name: CaseRecent,
		when: func(in Input) bool { return true },
		apply: func(ctx context.Context, r *Resolver, in Input) (Decision, bool) {
			return Decision{Case: CaseRecent, Name: in.Name}, true
		},
	},
}

type Resolver struct {
	factory unitofwork.RepositoryFactory
	logger  logger.ILogger
}

func NewResolver(factory unitofwork.RepositoryFactory, log logger.ILogger) *Resolver {
	return &Resolver{
		factory: factory,
		logger:  log,
	}
}

// Resolve runs the cascade. A contact id that no longer resolves is
// dropped and the cascade starts over, so the result equals resolving
// the same input without the id.
func (r *Resolver) Resolve(ctx context.Context, userId uuid.UUID, in Input) Decision {
	var stale *int64
	for {
		restarted := false
		for _, rl := range rules {
			if !rl.when(in) {
				continue
			}
			d, ok := rl.apply(ctx, r, in)
			if ok {
				d.StaleContactId = stale
				return d
			}
			r.logger.Warn(logModule, "Contact id no longer resolves, retrying without it", map[string]interface{}{
				"user_id":    userId.String(),
				"contact_id": *in.ContactId,
			})
			stale = in.ContactId
			in.ContactId = nil
			restarted = true
			break
		}
		if !restarted {
			return Decision{Case: CaseRecent, Name: in.Name, StaleContactId: stale}
		}
	}
}

func (r *Resolver) findContact(ctx context.Context, id int64) *entity.Contact {
	contact, err := r.factory.NewUnitOfWork(ctx).ContactRepository().FindByID(ctx, id)
	if err != nil {
		r.logger.Warn(logModule, "Contact lookup failed", map[string]interface{}{
			"contact_id": id,
			"error":      err.Error(),
		})
		return nil
	}
	return contact
}

func (r *Resolver) findContactByEmail(ctx context.Context, email string) *entity.Contact {
	contact, err := r.factory.NewUnitOfWork(ctx).ContactRepository().FindByEmail(ctx, email)
	if err != nil {
		r.logger.Warn(logModule, "Contact lookup by email failed", map[string]interface{}{
			"email": email,
			"error": err.Error(),
		})
		return nil
	}
	return contact
}

// mentionEmail normalizes a free-text email hint. Anything that is not an
// address counts as no email.
func mentionEmail(raw string) string {
	email := entity.NormalizeEmail(raw)
	if email == "" || emailCheck.Var(email, "email") != nil {
		return ""
	}
	return email
}

// usableEmail prefers the mention's email over the snapshot's.
func usableEmail(in Input) string {
	if in.Email != "" {
		return in.Email
	}
	if in.Snapshot != nil {
		return mentionEmail(in.Snapshot.Email)
	}
	return ""
}

func snapshotName(s *crm.Snapshot) string {
	if s == nil {
		return ""
	}
	return s.Name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
