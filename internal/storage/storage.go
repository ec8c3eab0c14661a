package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"
)

// DocumentArchiveRoot is the key prefix every archived upload batch lives under.
const DocumentArchiveRoot = "documents"

var ErrObjectNotFound = errors.New("object not found")

var uploadIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// Object describes one archived blob.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ObjectStore is the blob store uploaded documents are archived to. Keys are
// slash separated and relative to whatever prefix the store was opened with.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	List(ctx context.Context, prefix string) ([]Object, error)
}

// ArchiveKey lays out one object per upload batch, partitioned by UTC day:
// documents/date=YYYY-MM-DD/upload-<id>.parquet
func ArchiveKey(uploadID string, uploadedAt time.Time) (string, error) {
	if !uploadIDPattern.MatchString(uploadID) {
		return "", fmt.Errorf("invalid upload id: %q", uploadID)
	}
	ts := uploadedAt.UTC()
	return path.Join(
		DocumentArchiveRoot,
		"date="+ts.Format(time.DateOnly),
		"upload-"+uploadID+".parquet",
	), nil
}

// ParseArchiveKey is the inverse of ArchiveKey. It reports false for keys that
// were not written by the document archive.
func ParseArchiveKey(key string) (uploadID string, day time.Time, ok bool) {
	parts := strings.Split(strings.Trim(key, "/"), "/")
	if len(parts) != 3 || parts[0] != DocumentArchiveRoot {
		return "", time.Time{}, false
	}
	datePart, found := strings.CutPrefix(parts[1], "date=")
	if !found {
		return "", time.Time{}, false
	}
	day, err := time.Parse(time.DateOnly, datePart)
	if err != nil {
		return "", time.Time{}, false
	}
	name, found := strings.CutPrefix(parts[2], "upload-")
	if !found {
		return "", time.Time{}, false
	}
	uploadID, found = strings.CutSuffix(name, ".parquet")
	if !found || !uploadIDPattern.MatchString(uploadID) {
		return "", time.Time{}, false
	}
	return uploadID, day, true
}
