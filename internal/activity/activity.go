// Package activity keeps a short in-memory feed of recent user-visible
// events for the dashboard.
package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const DefaultMaxEntries = 10

type Type string

const (
	TypeConnection Type = "connection"
	TypeUpload     Type = "upload"
	TypeQuery      Type = "query"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

type Entry struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Status      string    `json:"status"`
}

// Log is a bounded feed ordered most recent first. Once full, each new
// entry evicts the oldest one.
type Log struct {
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries []Entry
}

func NewLog(maxEntries int) *Log {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Log{maxEntries: maxEntries, now: time.Now}
}

// Record appends an entry. An empty status means success.
func (l *Log) Record(kind Type, description, status string) Entry {
	if status == "" {
		status = StatusSuccess
	}
	entry := Entry{
		ID:          uuid.NewString(),
		Type:        kind,
		Description: description,
		Timestamp:   l.now().UTC(),
		Status:      status,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > l.maxEntries {
		l.entries = l.entries[:l.maxEntries]
	}
	return entry
}

func (l *Log) Recent() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
