package router

import (
	"encoding/json"

	"github.com/hybridqa/hybridqa/internal/classify"
	"github.com/hybridqa/hybridqa/internal/query"
)

const (
	SourceDatabase  = "Database"
	SourceDocuments = "Documents"

	CacheStatusHit  = "hit"
	CacheStatusMiss = "miss"

	queryGenerationFailed = "Error generating SQL"
)

// Record is the full answer to one question, as cached and as returned to
// clients.
type Record struct {
	UserQuery          string         `json:"user_query"`
	QueryType          classify.Type  `json:"query_type"`
	Results            []SourceResult `json:"results"`
	PerformanceMetrics Performance    `json:"performance_metrics"`
}

type Performance struct {
	ResponseTimeSeconds float64 `json:"response_time_seconds"`
	CacheStatus         string  `json:"cache_status"`
}

// SourceResult holds either a database result or document hits, selected by
// Source.
type SourceResult struct {
	Source    string
	Database  DatabaseResult
	Documents []DocumentHit
}

// DatabaseResult carries rows on success. Error is set instead when
// generation or execution failed.
type DatabaseResult struct {
	Query string
	Rows  []query.Row
	Error string
}

type DocumentHit struct {
	Filename       string  `json:"filename"`
	Snippet        string  `json:"snippet"`
	RelevanceScore float64 `json:"relevance_score"`
}

func (s SourceResult) MarshalJSON() ([]byte, error) {
	if s.Source == SourceDocuments {
		hits := s.Documents
		if hits == nil {
			hits = []DocumentHit{}
		}
		return json.Marshal(struct {
			Source string        `json:"source"`
			Data   []DocumentHit `json:"data"`
		}{Source: s.Source, Data: hits})
	}

	var data any
	switch {
	case s.Database.Error != "":
		data = map[string]string{"error": s.Database.Error}
	case s.Database.Rows == nil:
		data = []query.Row{}
	default:
		data = s.Database.Rows
	}
	return json.Marshal(struct {
		Source string `json:"source"`
		Query  string `json:"query"`
		Data   any    `json:"data"`
	}{Source: s.Source, Query: s.Database.Query, Data: data})
}

func (r Record) clone() Record {
	out := r
	out.Results = make([]SourceResult, len(r.Results))
	for i, result := range r.Results {
		copied := result
		if result.Database.Rows != nil {
			copied.Database.Rows = make([]query.Row, len(result.Database.Rows))
			for j, row := range result.Database.Rows {
				copied.Database.Rows[j] = query.Row{
					Columns: append([]string(nil), row.Columns...),
					Values:  append([]any(nil), row.Values...),
				}
			}
		}
		if result.Documents != nil {
			copied.Documents = append([]DocumentHit(nil), result.Documents...)
		}
		out.Results[i] = copied
	}
	return out
}
