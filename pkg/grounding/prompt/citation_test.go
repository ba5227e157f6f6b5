package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCitations(t *testing.T) {
	text := "We met at [Demo](meeting:42) and [Q3 review, part 2](meeting:7). " +
		"Not citations: [x](meeting:abc), [](meeting:1), [y](meeting: 3), (meeting:4), " +
		"[overflow](meeting:99999999999999999999)."

	got := ParseCitations(text)

	assert.Len(t, got, 2)
	assert.Equal(t, "Demo", got[0].Label)
	assert.Equal(t, int64(42), got[0].MeetingId)
	assert.Equal(t, "[Demo](meeting:42)", text[got[0].Start:got[0].End])
	assert.Equal(t, "Q3 review, part 2", got[1].Label)
	assert.Equal(t, int64(7), got[1].MeetingId)

	assert.Nil(t, ParseCitations("no links here"))
}

func TestCitationPatternSource(t *testing.T) {
	assert.Equal(t, `\[([^\]]+)\]\(meeting:(\d+)\)`, CitationPattern.String())
}
