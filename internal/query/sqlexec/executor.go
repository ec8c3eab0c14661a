package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hybridqa/hybridqa/internal/query"
	"github.com/hybridqa/hybridqa/internal/sqldb"
)

type Config struct {
	Timeout  time.Duration
	ReadOnly bool
	MaxRows  int
}

// Executor runs generated SQL against the database named by the request
// DSN and materializes every row in column order.
type Executor struct {
	source sqldb.Source
	cfg    Config
}

func NewExecutor(source sqldb.Source, cfg Config) *Executor {
	return &Executor{source: source, cfg: cfg}
}

func (e *Executor) Execute(ctx context.Context, request query.Request) (query.Result, error) {
	sqlText := stripTrailingSemicolons(request.SQL)
	if sqlText == "" {
		return query.Result{}, &query.ExecutionError{Kind: query.ErrorKindOther, Err: fmt.Errorf("sql is required")}
	}
	if e.cfg.ReadOnly {
		dialect := sqldb.Dialect("")
		if descriptor, err := sqldb.Parse(request.DSN); err == nil {
			dialect = descriptor.Dialect
		}
		if err := checkReadOnly(sqlText, dialect); err != nil {
			return query.Result{}, &query.ExecutionError{Kind: query.ErrorKindPermission, Err: err}
		}
	}
	if e.source == nil {
		return query.Result{}, &query.ExecutionError{Kind: query.ErrorKindConnection, Err: fmt.Errorf("database source is required")}
	}

	if e.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	db, descriptor, err := e.source.Get(ctx, request.DSN)
	if err != nil {
		kind := classify(err)
		if kind == query.ErrorKindOther {
			kind = query.ErrorKindConnection
		}
		return query.Result{}, &query.ExecutionError{Kind: kind, Err: err}
	}

	var result query.Result
	// SQLite and DuckDB handles are opened read-only by sqldb.Pools; the
	// servers get a READ ONLY transaction.
	if e.cfg.ReadOnly && (descriptor.Dialect == sqldb.DialectPostgres || descriptor.Dialect == sqldb.DialectMySQL) {
		result, err = e.executeReadOnlyTx(ctx, db, sqlText)
	} else {
		result, err = e.collect(db.QueryContext(ctx, sqlText))
	}
	if err != nil {
		return query.Result{}, &query.ExecutionError{Kind: classify(err), Err: err}
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (e *Executor) executeReadOnlyTx(ctx context.Context, db *sql.DB, sqlText string) (query.Result, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return query.Result{}, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return e.collect(tx.QueryContext(ctx, sqlText))
}

func (e *Executor) collect(rows *sql.Rows, err error) (query.Result, error) {
	if err != nil {
		return query.Result{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return query.Result{}, fmt.Errorf("query columns: %w", err)
	}

	result := query.Result{Columns: columns, Rows: make([]query.Row, 0)}
	for rows.Next() {
		if e.cfg.MaxRows > 0 && len(result.Rows) >= e.cfg.MaxRows {
			result.Truncated = true
			break
		}
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return query.Result{}, fmt.Errorf("scan row: %w", err)
		}
		result.Rows = append(result.Rows, query.Row{Columns: columns, Values: normalizeValues(values)})
	}
	if err := rows.Err(); err != nil {
		return query.Result{}, err
	}
	return result, nil
}

type float64er interface {
	Float64() float64
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		case time.Time:
			normalized[i] = typed
		case float64er:
			normalized[i] = typed.Float64()
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
