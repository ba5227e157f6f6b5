// Package title produces short thread titles from the first exchange.
package title

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"contact-assistant-be/internal/constant"
	"contact-assistant-be/pkg/llm"
)

const (
	DefaultMaxQuestionLength = 50
	maxTitleRunes            = 80
	maxTitleWords            = 8
	emptyQuestionTitle       = "New conversation"
)

type Generator struct {
	provider          llm.LLMProvider
	model             string
	maxQuestionLength int
}

func NewGenerator(provider llm.LLMProvider, model string, maxQuestionLength int) *Generator {
	if maxQuestionLength <= 0 {
		maxQuestionLength = DefaultMaxQuestionLength
	}
	return &Generator{
		provider:          provider,
		model:             model,
		maxQuestionLength: maxQuestionLength,
	}
}

// Generate asks the model for a title. On any error or unusable reply it
// returns the fallback title together with the error that caused it.
func (g *Generator) Generate(ctx context.Context, question, answer string) (string, error) {
	prompt := fmt.Sprintf(constant.ThreadTitlePromptV1, question, answer)
	raw, err := g.provider.Generate(ctx, prompt, llm.WithModel(g.model), llm.WithMaxTokens(32), llm.WithTemperature(0.2))
	if err != nil {
		return Fallback(question, g.maxQuestionLength), err
	}
	title := Clean(raw)
	if title == "" {
		return Fallback(question, g.maxQuestionLength), llm.ErrEmptyReply
	}
	return title, nil
}

func (g *Generator) Fallback(question string) string {
	return Fallback(question, g.maxQuestionLength)
}

// Fallback truncates the question to max runes, appending "..." only
// when something was cut.
func Fallback(question string, max int) string {
	q := strings.Join(strings.Fields(question), " ")
	if q == "" {
		return emptyQuestionTitle
	}
	if utf8.RuneCountInString(q) <= max {
		return q
	}
	runes := []rune(q)
	return strings.TrimRight(string(runes[:max]), " ") + "..."
}

// Clean strips the decoration models like to add around a title.
func Clean(raw string) string {
	line := strings.TrimSpace(raw)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	for _, prefix := range []string{"Title:", "title:", "TITLE:"} {
		line = strings.TrimPrefix(line, prefix)
	}
	line = strings.Trim(strings.TrimSpace(line), "\"'`*#“”")
	line = strings.TrimRight(strings.TrimSpace(line), ".!:;,")

	fields := strings.Fields(line)
	if len(fields) > maxTitleWords {
		fields = fields[:maxTitleWords]
	}
	line = strings.Join(fields, " ")
	if utf8.RuneCountInString(line) > maxTitleRunes {
		line = strings.TrimSpace(string([]rune(line)[:maxTitleRunes]))
	}
	return line
}
