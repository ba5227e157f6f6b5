package title

import (
	"context"
	"errors"
	"strings"
	"testing"

	"contact-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	reply  string
	err    error
	prompt string
}

func (s *stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.reply, s.err
}

func (s *stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func TestFallback(t *testing.T) {
	assert.Equal(t, "When did I last meet John?", Fallback("When did I last meet John?", 50))
	assert.Equal(t, "New conversation", Fallback("   ", 50))

	long := "What were the main objections raised by the procurement team during the pilot review?"
	got := Fallback(long, 50)
	assert.Equal(t, "What were the main objections raised by the procu...", got)
	assert.Equal(t, 53, len([]rune(got)))

	exact := strings.Repeat("a", 50)
	assert.Equal(t, exact, Fallback(exact, 50))

	assert.Equal(t, "Überprüfung...", Fallback("Überprüfung der Verträge", 11))
	assert.Equal(t, "multi line question", Fallback("multi\n line\tquestion", 50))
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		`"Q3 Renewal With Acme"`:            "Q3 Renewal With Acme",
		"Title: Pricing follow-up.\nextra": "Pricing follow-up",
		"**Demo recap**":                   "Demo recap",
		"  ":                               "",
		"one two three four five six seven eight nine ten": "one two three four five six seven eight",
	}
	for in, want := range cases {
		assert.Equal(t, want, Clean(in), in)
	}
}

func TestGenerator_Generate(t *testing.T) {
	p := &stubProvider{reply: "\"Acme renewal timeline\"\n"}
	g := NewGenerator(p, "", 0)

	title, err := g.Generate(context.Background(), "When is Acme renewing?", "In March.")

	assert.NoError(t, err)
	assert.Equal(t, "Acme renewal timeline", title)
	assert.Contains(t, p.prompt, "User: When is Acme renewing?")
	assert.Contains(t, p.prompt, "Assistant: In March.")
}

func TestGenerator_FallsBack(t *testing.T) {
	question := "Can you summarize every meeting we had with the Initech procurement team?"

	g := NewGenerator(&stubProvider{err: errors.New("503")}, "", 50)
	title, err := g.Generate(context.Background(), question, "answer")
	assert.Error(t, err)
	assert.Equal(t, Fallback(question, 50), title)

	g = NewGenerator(&stubProvider{reply: "  \"\"  "}, "", 50)
	title, err = g.Generate(context.Background(), question, "answer")
	assert.ErrorIs(t, err, llm.ErrEmptyReply)
	assert.Equal(t, g.Fallback(question), title)
}
