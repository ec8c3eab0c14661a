package storage

import (
	"testing"
	"time"
)

func TestArchiveKeyUsesUTCDay(t *testing.T) {
	ts := time.Date(2026, time.February, 19, 22, 5, 0, 0, time.FixedZone("x", -5*3600))
	key, err := ArchiveKey("7f1c2e4a-0d5b-4f43-9a77-52c1a1f0e001", ts)
	if err != nil {
		t.Fatalf("ArchiveKey() error = %v", err)
	}
	want := "documents/date=2026-02-20/upload-7f1c2e4a-0d5b-4f43-9a77-52c1a1f0e001.parquet"
	if key != want {
		t.Fatalf("ArchiveKey() = %q, want %q", key, want)
	}
}

func TestArchiveKeyRejectsInvalidID(t *testing.T) {
	if _, err := ArchiveKey("../oops", time.Now()); err == nil {
		t.Fatal("expected invalid upload id error")
	}
}

func TestParseArchiveKeyRoundTrip(t *testing.T) {
	key, err := ArchiveKey("batch-1", time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ArchiveKey() error = %v", err)
	}
	id, day, ok := ParseArchiveKey(key)
	if !ok {
		t.Fatalf("ParseArchiveKey(%q) not ok", key)
	}
	if id != "batch-1" {
		t.Fatalf("upload id = %q", id)
	}
	if !day.Equal(time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day = %s", day)
	}
}

func TestParseArchiveKeyRejectsForeignKeys(t *testing.T) {
	for _, key := range []string{
		"documents/readme.txt",
		"documents/date=2026-02-30/upload-a.parquet",
		"documents/date=2026-02-20/batch-a.parquet",
		"documents/date=2026-02-20/upload-a.csv",
		"other/date=2026-02-20/upload-a.parquet",
		"documents/date=2026-02-20/nested/upload-a.parquet",
	} {
		if _, _, ok := ParseArchiveKey(key); ok {
			t.Fatalf("ParseArchiveKey(%q) ok, want rejected", key)
		}
	}
}
