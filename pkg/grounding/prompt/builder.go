// Package prompt renders the grounding prompt and the multi-turn payload
// for a chat turn. Output is a pure function of its inputs.
package prompt

import (
	"fmt"
	"strings"

	"contact-assistant-be/internal/constant"
	"contact-assistant-be/internal/entity"
	"contact-assistant-be/pkg/grounding/bundle"
	"contact-assistant-be/pkg/llm"
)

const (
	contactIntro = "You are a helpful assistant that answers questions about a business contact using their CRM record and meeting history."
	recentIntro  = "You are a helpful assistant that answers questions about the user's recent meetings."

	contactRules = "Only use the information provided below. Do not invent details about the contact, their company or their meetings that are not present in the CRM record or meeting history. If the answer is not in the provided information, say that you don't know."
	recentRules  = "Only use the information provided below. Do not invent details about people or meetings that are not present in the meeting history. If the answer is not in the provided information, say that you don't know."

	contactMeetingsLabel = "MEETING HISTORY:"
	recentMeetingsLabel  = "RECENT MEETING HISTORY:"

	heuristicLabel = "POSSIBLE RELATED MEETINGS (UNCONFIRMED):"
	heuristicRules = "The meetings below were matched only because a participant has the first name %q. They are not confirmed to include this contact. If you use any of them, say clearly that the match is based on the first name only and is unconfirmed. If you cannot tell whether a meeting involves this contact, say you don't know rather than guessing."

	citationLabel = "CITATION FORMAT:"
	citationRules = "When you refer to a meeting, cite it inline as [short label](meeting:MEETING_ID) using the Meeting ID shown above, for example [Kickoff call](meeting:123). Only cite meetings listed above and do not change the format."

	// Acknowledgment is the fixed model turn that follows the context turn.
	Acknowledgment = "Understood. I will answer using only the information provided and cite meetings in the requested format."
)

// Prompt is everything the orchestrator needs for one model call.
type Prompt struct {
	System      string
	Turns       []llm.Message
	MeetingRefs []entity.MeetingRef
}

func Build(b *bundle.ContextBundle, history []*entity.Message, question string) Prompt {
	system := BuildSystemContext(b)
	return Prompt{
		System:      system,
		Turns:       BuildTurns(system, history, question),
		MeetingRefs: MeetingRefs(b),
	}
}

// BuildSystemContext renders the grounding text. Identical bundles give
// byte-identical output.
func BuildSystemContext(b *bundle.ContextBundle) string {
	intro, rules, label := recentIntro, recentRules, recentMeetingsLabel
	if b.HasSubject() {
		intro, rules, label = contactIntro, contactRules, contactMeetingsLabel
	}

	sections := []string{intro, rules}
	if b.HasSubject() {
		sections = append(sections, renderContact(b.Contact, b.Snapshot))
	}
	sections = append(sections, label+"\n\n"+renderMeetings(b.Meetings))

	if len(b.Heuristic) > 0 {
		sections = append(sections,
			heuristicLabel+"\n"+fmt.Sprintf(heuristicRules, b.HeuristicName)+"\n\n"+renderMeetings(b.Heuristic))
	}

	sections = append(sections, citationLabel+"\n"+citationRules)
	return strings.Join(sections, "\n\n")
}

// BuildTurns lays out the conversation: the context turn, the fixed
// acknowledgment, prior messages and the question. If history already ends
// with the question as a user turn it is not repeated.
func BuildTurns(system string, history []*entity.Message, question string) []llm.Message {
	prior := history
	if n := len(prior); n > 0 {
		last := prior[n-1]
		if last.Role == constant.ChatMessageRoleUser && strings.TrimSpace(last.Content) == strings.TrimSpace(question) {
			prior = prior[:n-1]
		}
	}

	turns := make([]llm.Message, 0, len(prior)+3)
	turns = append(turns,
		llm.Message{Role: llm.RoleUser, Content: system},
		llm.Message{Role: llm.RoleModel, Content: Acknowledgment},
	)
	for _, m := range prior {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := llm.RoleUser
		if m.Role == constant.ChatMessageRoleAssistant {
			role = llm.RoleModel
		}
		turns = append(turns, llm.Message{Role: role, Content: m.Content})
	}
	return append(turns, llm.Message{Role: llm.RoleUser, Content: question})
}

// MeetingRefs lists the meetings rendered into the prompt, primary first,
// in prompt order.
func MeetingRefs(b *bundle.ContextBundle) []entity.MeetingRef {
	surfaced := b.Surfaced()
	refs := make([]entity.MeetingRef, 0, len(surfaced))
	for _, m := range surfaced {
		refs = append(refs, entity.MeetingRef{
			MeetingId: m.Id,
			Title:     MeetingTitle(m),
			Date:      MeetingDate(m),
		})
	}
	return refs
}
