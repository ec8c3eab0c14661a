// Package router answers a question end to end: it classifies it, queries
// the connected database and the document index as needed, and caches the
// combined record by exact question text.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/hybridqa/hybridqa/internal/classify"
	"github.com/hybridqa/hybridqa/internal/extract"
	"github.com/hybridqa/hybridqa/internal/nl2sql"
	"github.com/hybridqa/hybridqa/internal/observability"
	"github.com/hybridqa/hybridqa/internal/query"
	"github.com/hybridqa/hybridqa/internal/retrieve"
	"github.com/hybridqa/hybridqa/internal/schema"
)

var (
	ErrEmptyQuestion = errors.New("query is required")
	ErrNoConnection  = errors.New("no database connection configured")
)

// DiscoveryError is the only failure that aborts a question. Nothing is
// cached when it occurs.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("Schema discovery failed: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

type Retriever interface {
	Retrieve(ctx context.Context, question string) *retrieve.Passage
}

type Extractor interface {
	Extract(ctx context.Context, question, passage string) extract.Answer
}

type Dependencies struct {
	Discoverer schema.Discoverer
	Translator nl2sql.Translator
	Executor   query.Executor
	Retriever  Retriever
	Extractor  Extractor
	Logger     *slog.Logger
	// DSN is the database used until Connect selects another one.
	DSN string
}

type Stats struct {
	CachedQueries          int
	AnsweredQueries        int
	AverageResponseSeconds float64
}

type Router struct {
	deps   Dependencies
	logger *slog.Logger
	now    func() time.Time

	connMu sync.RWMutex
	dsn    string
	schema *schema.Model

	mu           sync.RWMutex
	cache        map[string]Record
	answered     int
	totalSeconds float64
}

func New(deps Dependencies) *Router {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		deps:   deps,
		logger: logger,
		now:    time.Now,
		dsn:    strings.TrimSpace(deps.DSN),
		cache:  map[string]Record{},
	}
}

// Connect discovers the schema of dsn and makes it the active database. An
// empty dsn re-discovers the active one.
func (r *Router) Connect(ctx context.Context, dsn string) (*schema.Model, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = r.CurrentDSN()
	}
	if dsn == "" {
		return nil, ErrNoConnection
	}
	model, err := r.discover(ctx, dsn)
	if err != nil {
		return nil, err
	}
	r.connMu.Lock()
	r.dsn = dsn
	r.connMu.Unlock()
	return model, nil
}

func (r *Router) CurrentDSN() string {
	r.connMu.RLock()
	defer r.connMu.RUnlock()
	return r.dsn
}

// CurrentSchema returns the last successfully discovered schema, or nil.
func (r *Router) CurrentSchema() *schema.Model {
	r.connMu.RLock()
	defer r.connMu.RUnlock()
	return r.schema
}

func (r *Router) CacheSize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Router) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := Stats{CachedQueries: len(r.cache), AnsweredQueries: r.answered}
	if r.answered > 0 {
		stats.AverageResponseSeconds = r.totalSeconds / float64(r.answered)
	}
	return stats
}

func (r *Router) Process(ctx context.Context, question string) (Record, error) {
	if strings.TrimSpace(question) == "" {
		return Record{}, ErrEmptyQuestion
	}
	dsn := r.CurrentDSN()
	if dsn == "" {
		return Record{}, ErrNoConnection
	}

	if record, ok := r.cached(question); ok {
		observability.ObserveQuery(string(record.QueryType), CacheStatusHit, 0)
		return record, nil
	}

	start := r.now()
	model, err := r.discover(ctx, dsn)
	if err != nil {
		return Record{}, err
	}

	queryType := classify.Classify(question)
	record := Record{
		UserQuery: question,
		QueryType: queryType,
		Results:   []SourceResult{},
	}
	if queryType.WantsDatabase() {
		record.Results = append(record.Results, r.answerFromDatabase(ctx, question, dsn, model))
	}
	if queryType.WantsDocuments() {
		record.Results = append(record.Results, r.answerFromDocuments(ctx, question))
	}

	elapsed := r.now().Sub(start)
	record.PerformanceMetrics = Performance{
		ResponseTimeSeconds: roundSeconds(elapsed),
		CacheStatus:         CacheStatusMiss,
	}

	r.mu.Lock()
	r.cache[question] = record.clone()
	r.answered++
	r.totalSeconds += record.PerformanceMetrics.ResponseTimeSeconds
	size := len(r.cache)
	r.mu.Unlock()

	observability.ObserveQuery(string(queryType), CacheStatusMiss, elapsed)
	observability.SetResultCacheEntries(size)
	r.logger.DebugContext(ctx, "query_processed",
		slog.String("query_type", string(queryType)),
		slog.Int("results", len(record.Results)),
		slog.Duration("elapsed", elapsed),
	)
	return record, nil
}

func (r *Router) cached(question string) (Record, bool) {
	r.mu.RLock()
	stored, ok := r.cache[question]
	r.mu.RUnlock()
	if !ok {
		return Record{}, false
	}
	record := stored.clone()
	record.PerformanceMetrics.CacheStatus = CacheStatusHit
	return record, true
}

func (r *Router) discover(ctx context.Context, dsn string) (*schema.Model, error) {
	if r.deps.Discoverer == nil {
		return nil, &DiscoveryError{Err: errors.New("schema discoverer is not configured")}
	}
	model, err := r.deps.Discoverer.Discover(ctx, dsn)
	if err != nil {
		observability.IncrementSchemaDiscoveryFailure()
		r.logger.WarnContext(ctx, "schema_discovery_failed", slog.Any("error", err))
		return nil, &DiscoveryError{Err: err}
	}
	r.connMu.Lock()
	r.schema = model
	r.connMu.Unlock()
	return model, nil
}

func (r *Router) answerFromDatabase(ctx context.Context, question, dsn string, model *schema.Model) SourceResult {
	result := SourceResult{Source: SourceDatabase}
	if r.deps.Translator == nil {
		observability.IncrementSQLGenerationFailure(string(nl2sql.ErrorKindConfigMissing))
		result.Database = DatabaseResult{Query: queryGenerationFailed, Error: "LLM not configured."}
		return result
	}

	generated, err := r.deps.Translator.Translate(ctx, nl2sql.Request{Question: question, Schema: model})
	if err != nil {
		kind := nl2sql.ErrorKindUpstream
		message := err.Error()
		var genErr *nl2sql.GenerationError
		if errors.As(err, &genErr) {
			kind = genErr.Kind
		}
		observability.IncrementSQLGenerationFailure(string(kind))
		r.logger.WarnContext(ctx, "sql_generation_failed", slog.String("kind", string(kind)), slog.Any("error", err))
		result.Database = DatabaseResult{Query: queryGenerationFailed, Error: message}
		return result
	}

	result.Database.Query = generated.SQL
	if r.deps.Executor == nil {
		result.Database.Error = (&query.ExecutionError{Kind: query.ErrorKindConnection, Err: errors.New("sql executor is not configured")}).Error()
		return result
	}
	rows, err := r.deps.Executor.Execute(ctx, query.Request{SQL: generated.SQL, DSN: dsn})
	if err != nil {
		var execErr *query.ExecutionError
		if !errors.As(err, &execErr) {
			execErr = &query.ExecutionError{Kind: query.ErrorKindOther, Err: err}
		}
		observability.IncrementSQLExecutionFailure(string(execErr.Kind))
		r.logger.WarnContext(ctx, "sql_execution_failed", slog.String("kind", string(execErr.Kind)), slog.Any("error", err))
		result.Database.Error = execErr.Error()
		return result
	}
	result.Database.Rows = rows.Rows
	if result.Database.Rows == nil {
		result.Database.Rows = []query.Row{}
	}
	return result
}

func (r *Router) answerFromDocuments(ctx context.Context, question string) SourceResult {
	result := SourceResult{Source: SourceDocuments, Documents: []DocumentHit{}}
	if r.deps.Retriever == nil {
		return result
	}
	passage := r.deps.Retriever.Retrieve(ctx, question)
	if passage == nil {
		return result
	}

	var answer extract.Answer
	if r.deps.Extractor == nil {
		answer = extract.New(nil, r.logger).Extract(ctx, question, passage.Content)
	} else {
		answer = r.deps.Extractor.Extract(ctx, question, passage.Content)
	}
	observability.ObserveAnswerExtraction(string(answer.Status))
	switch answer.Status {
	case extract.StatusFailed:
		r.logger.WarnContext(ctx, "answer_extraction_failed",
			slog.String("filename", passage.Filename),
			slog.String("answer", answer.Text),
		)
	case extract.StatusNotFound:
		r.logger.DebugContext(ctx, "answer_not_found", slog.String("filename", passage.Filename))
	}
	result.Documents = append(result.Documents, DocumentHit{
		Filename:       passage.Filename,
		Snippet:        answer.Text,
		RelevanceScore: passage.Score,
	})
	return result
}

func roundSeconds(elapsed time.Duration) float64 {
	return math.Round(elapsed.Seconds()*100) / 100
}
