package evidence

import (
	"strings"

	"contact-assistant-be/internal/entity"
)

// FirstToken returns the first whitespace-delimited token of a name.
func FirstToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// MatchesFirstName reports whether the participant's first token equals
// the target's first token, ignoring case. "John Smith" matches "john";
// "Benjamin John" and "Johnson" do not.
func MatchesFirstName(participant, target string) bool {
	p, t := FirstToken(participant), FirstToken(target)
	return p != "" && t != "" && strings.EqualFold(p, t)
}

func AnyParticipantMatches(meeting *entity.Meeting, target string) bool {
	for _, participant := range meeting.Participants {
		if MatchesFirstName(participant, target) {
			return true
		}
	}
	return false
}
