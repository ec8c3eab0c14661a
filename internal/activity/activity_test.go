package activity

import (
	"fmt"
	"testing"
	"time"
)

func TestRecordKeepsMostRecentFirst(t *testing.T) {
	log := NewLog(3)
	base := time.Date(2026, 2, 19, 10, 0, 0, 0, time.UTC)
	step := 0
	log.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}

	for i := 1; i <= 5; i++ {
		log.Record(TypeQuery, fmt.Sprintf("query %d", i), "")
	}
	entries := log.Recent()
	if len(entries) != 3 {
		t.Fatalf("len(Recent()) = %d, want 3", len(entries))
	}
	for i, want := range []string{"query 5", "query 4", "query 3"} {
		if entries[i].Description != want {
			t.Fatalf("entries[%d] = %q, want %q", i, entries[i].Description, want)
		}
	}
	if entries[0].Status != StatusSuccess || entries[0].ID == "" {
		t.Fatalf("entry = %+v", entries[0])
	}
	if !entries[0].Timestamp.After(entries[1].Timestamp) {
		t.Fatalf("timestamps not descending: %v, %v", entries[0].Timestamp, entries[1].Timestamp)
	}
	if entries[0].ID == entries[1].ID {
		t.Fatal("entry ids should be unique")
	}
}

func TestRecentReturnsCopy(t *testing.T) {
	log := NewLog(0)
	log.Record(TypeUpload, "Processed 1 / 2 documents.", StatusError)
	entries := log.Recent()
	entries[0].Description = "changed"
	if got := log.Recent()[0]; got.Description != "Processed 1 / 2 documents." || got.Status != StatusError {
		t.Fatalf("stored entry = %+v", got)
	}
	if log.maxEntries != DefaultMaxEntries {
		t.Fatalf("maxEntries = %d", log.maxEntries)
	}
}
