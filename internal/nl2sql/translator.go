package nl2sql

import (
	"context"
	"fmt"

	"github.com/hybridqa/hybridqa/internal/schema"
)

type Request struct {
	Question string
	Schema   *schema.Model
}

type Result struct {
	SQL   string `json:"sql"`
	Model string `json:"model"`
}

type Translator interface {
	Translate(ctx context.Context, req Request) (Result, error)
}

type ErrorKind string

const (
	ErrorKindConfigMissing     ErrorKind = "config_missing"
	ErrorKindSchemaUnavailable ErrorKind = "schema_unavailable"
	ErrorKindUpstream          ErrorKind = "upstream"
	ErrorKindTimeout           ErrorKind = "timeout"
)

const (
	messageNotConfigured     = "LLM not configured."
	messageSchemaUnavailable = "Database schema is not available."
)

// GenerationError explains why no SQL was produced. Message is safe to show
// to end users.
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("sql generation failed: %s", e.Kind)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
