package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Row is one result row with values kept in column order. It marshals as
// a JSON object whose keys follow that order.
type Row struct {
	Columns []string
	Values  []any
}

func (r Row) Get(column string) (any, bool) {
	for i, name := range r.Columns {
		if name == column {
			return r.Values[i], true
		}
	}
	return nil, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		var value any
		if i < len(r.Values) {
			value = r.Values[i]
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode column %q: %w", name, err)
		}
		buf.Write(encoded)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type Request struct {
	SQL string
	DSN string
}

type Result struct {
	Columns   []string
	Rows      []Row
	Truncated bool
	Duration  time.Duration
}

type Executor interface {
	Execute(ctx context.Context, request Request) (Result, error)
}

type ErrorKind string

const (
	ErrorKindSyntax     ErrorKind = "syntax"
	ErrorKindConnection ErrorKind = "connection"
	ErrorKindPermission ErrorKind = "permission"
	ErrorKindTimeout    ErrorKind = "timeout"
	ErrorKindOther      ErrorKind = "other"
)

var ErrReadOnly = errors.New("only read-only SELECT statements are allowed")

// ExecutionError wraps a driver failure with a coarse classification.
type ExecutionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("Error executing SQL: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
