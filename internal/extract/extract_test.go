package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeClient struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeClient) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func TestExtractFound(t *testing.T) {
	client := &fakeClient{reply: "  github.com/alice\n"}
	answer := New(client, nil).Extract(context.Background(), "What is Alice's GitHub link?", "Alice Smith. GitHub: github.com/alice")
	if answer.Status != StatusFound || answer.Text != "github.com/alice" {
		t.Fatalf("answer = %+v", answer)
	}
	if len(client.prompts) != 1 {
		t.Fatalf("prompts = %d, want 1", len(client.prompts))
	}
	prompt := client.prompts[0]
	if !strings.Contains(prompt, "Alice Smith. GitHub: github.com/alice") || !strings.Contains(prompt, `"What is Alice's GitHub link?"`) {
		t.Fatalf("prompt missing passage or question:\n%s", prompt)
	}
	if !strings.Contains(prompt, NotFoundText) {
		t.Fatalf("prompt missing not-found phrase:\n%s", prompt)
	}
}

func TestExtractNotFound(t *testing.T) {
	answer := New(&fakeClient{reply: NotFoundText}, nil).Extract(context.Background(), "q", "p")
	if answer.Status != StatusNotFound || answer.Text != NotFoundText {
		t.Fatalf("answer = %+v", answer)
	}
}

func TestExtractNotFoundEchoedWithQuotes(t *testing.T) {
	for _, reply := range []string{
		`"` + NotFoundText + `"`,
		" '" + NotFoundText + "'\n",
		"\u201c" + NotFoundText + "\u201d",
	} {
		answer := New(&fakeClient{reply: reply}, nil).Extract(context.Background(), "q", "p")
		if answer.Status != StatusNotFound || answer.Text != NotFoundText {
			t.Fatalf("reply %q: answer = %+v", reply, answer)
		}
	}

	answer := New(&fakeClient{reply: `"github.com/alice"`}, nil).Extract(context.Background(), "q", "p")
	if answer.Status != StatusFound {
		t.Fatalf("answer = %+v", answer)
	}
}

func TestExtractFailures(t *testing.T) {
	answer := New(nil, nil).Extract(context.Background(), "q", "p")
	if answer.Status != StatusFailed || answer.Text != "LLM not configured." {
		t.Fatalf("answer = %+v", answer)
	}

	answer = New(&fakeClient{err: errors.New("quota exceeded")}, nil).Extract(context.Background(), "q", "p")
	if answer.Status != StatusFailed || answer.Text != "Error during answer extraction: quota exceeded" {
		t.Fatalf("answer = %+v", answer)
	}
}
