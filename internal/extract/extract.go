// Package extract asks a language model for the exact answer contained in a
// retrieved passage.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hybridqa/hybridqa/internal/llm"
)

const (
	NotFoundText      = "The information was not found in the provided document."
	notConfiguredText = "LLM not configured."
	failurePrefix     = "Error during answer extraction: "
)

type Status string

const (
	StatusFound    Status = "found"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Answer is always displayable. Text carries the diagnostic when Status is
// StatusFailed.
type Answer struct {
	Text   string
	Status Status
}

type Extractor struct {
	client llm.Client
	logger *slog.Logger
}

// New accepts a nil client; every extraction then fails with a
// not-configured answer.
func New(client llm.Client, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{client: client, logger: logger}
}

func (e *Extractor) Extract(ctx context.Context, question, passage string) Answer {
	if e == nil || e.client == nil {
		return Answer{Text: notConfiguredText, Status: StatusFailed}
	}
	text, err := e.client.Generate(ctx, buildPrompt(question, passage))
	if err != nil {
		e.logger.WarnContext(ctx, "answer_extraction_failed", slog.Any("error", err))
		return Answer{Text: failurePrefix + err.Error(), Status: StatusFailed}
	}
	text = strings.TrimSpace(text)
	if unquote(text) == NotFoundText {
		return Answer{Text: NotFoundText, Status: StatusNotFound}
	}
	return Answer{Text: text, Status: StatusFound}
}

// unquote drops one pair of matching surrounding quotes, which models add
// when echoing the quoted not-found phrase.
func unquote(text string) string {
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"`", "`"}, {"“", "”"}} {
		if len(text) >= len(pair[0])+len(pair[1]) && strings.HasPrefix(text, pair[0]) && strings.HasSuffix(text, pair[1]) {
			return strings.TrimSpace(text[len(pair[0]) : len(text)-len(pair[1])])
		}
	}
	return text
}

func buildPrompt(question, passage string) string {
	return fmt.Sprintf(`You are an expert at reading comprehension. Based ONLY on the following text snippet from a document, please provide a direct and concise answer to the user's question.

**Document Snippet:**
---
%s
---

**User's Question:**
%q

**Instructions:**
1. If the answer is explicitly present in the text, provide ONLY the specific answer (e.g., just the email address, just the link).
2. If the answer cannot be found in the text, respond with ONLY the phrase: %q
`, passage, question, NotFoundText)
}
