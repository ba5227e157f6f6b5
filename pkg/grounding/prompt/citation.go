package prompt

import (
	"fmt"
	"regexp"
	"strconv"
)

// CitationPattern matches [label](meeting:123). The prompt instructions
// and every renderer that turns citations into links depend on it.
var CitationPattern = regexp.MustCompile(`\[([^\]]+)\]\(meeting:(\d+)\)`)

type Citation struct {
	Label     string `json:"label"`
	MeetingId int64  `json:"meeting_id"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
}

func FormatCitation(label string, meetingId int64) string {
	return fmt.Sprintf("[%s](meeting:%d)", label, meetingId)
}

// ParseCitations returns every citation in order of appearance with its
// byte offsets. Ids that overflow int64 are skipped.
func ParseCitations(text string) []Citation {
	matches := CitationPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]Citation, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.ParseInt(text[m[4]:m[5]], 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Citation{
			Label:     text[m[2]:m[3]],
			MeetingId: id,
			Start:     m[0],
			End:       m[1],
		})
	}
	return out
}
