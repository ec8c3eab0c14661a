package nl2sql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hybridqa/hybridqa/internal/llm"
	"github.com/hybridqa/hybridqa/internal/sqldb"
)

const FallbackSQL = "SELECT 'Sorry, I cannot answer this question with the available data.'"

// Generator asks a language model for one SQL statement answering a
// question against a discovered schema.
type Generator struct {
	client llm.Client
	model  string
}

// NewGenerator accepts a nil client; Translate then reports a missing
// configuration instead of calling out.
func NewGenerator(client llm.Client, model string) *Generator {
	return &Generator{client: client, model: model}
}

func (g *Generator) Translate(ctx context.Context, req Request) (Result, error) {
	if g.client == nil {
		return Result{}, &GenerationError{Kind: ErrorKindConfigMissing, Message: messageNotConfigured, Err: llm.ErrNotConfigured}
	}
	if req.Schema.Empty() {
		return Result{}, &GenerationError{Kind: ErrorKindSchemaUnavailable, Message: messageSchemaUnavailable}
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return Result{}, &GenerationError{Kind: ErrorKindUpstream, Message: err.Error(), Err: err}
	}
	text, err := g.client.Generate(ctx, prompt)
	if err != nil {
		kind := ErrorKindUpstream
		if llm.IsTimeout(err) {
			kind = ErrorKindTimeout
		}
		return Result{}, &GenerationError{Kind: kind, Message: err.Error(), Err: err}
	}

	sql := stripMarkdownSQL(text)
	if sql == "" {
		err := fmt.Errorf("model returned empty SQL")
		return Result{}, &GenerationError{Kind: ErrorKindUpstream, Message: err.Error(), Err: err}
	}
	return Result{SQL: sql, Model: g.model}, nil
}

func buildPrompt(req Request) (string, error) {
	schemaJSON, err := json.MarshalIndent(req.Schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal schema: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an expert SQL generator. Based on the database schema provided below, write a single, precise, and executable SQL query to answer the user's question.\n\n")
	b.WriteString("**Database Schema:**\n```json\n")
	b.Write(schemaJSON)
	b.WriteString("\n```\n\n")
	fmt.Fprintf(&b, "**User's Question:**\n%q\n\n", strings.TrimSpace(req.Question))
	b.WriteString("**Instructions:**\n")
	b.WriteString("1. Only output the SQL query. Do not include any explanations, markdown, or introductory text.\n")
	fmt.Fprintf(&b, "2. Ensure the query is valid for a %s database.\n", dialectName(req.Schema.Dialect))
	b.WriteString("3. Do not hallucinate table or column names; use only what is provided in the schema.\n")
	fmt.Fprintf(&b, "4. If the question cannot be answered with the given schema, output: %q\n\n", FallbackSQL)
	b.WriteString("**Generated SQL Query:**\n")
	return b.String(), nil
}

func dialectName(dialect sqldb.Dialect) string {
	switch dialect {
	case sqldb.DialectMySQL:
		return "MySQL"
	case sqldb.DialectSQLite:
		return "SQLite"
	case sqldb.DialectDuckDB:
		return "DuckDB"
	default:
		return "PostgreSQL"
	}
}

// stripMarkdownSQL removes code fences wherever the model put them.
func stripMarkdownSQL(value string) string {
	cleaned := strings.ReplaceAll(value, "```sql", "")
	cleaned = strings.ReplaceAll(cleaned, "```SQL", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
