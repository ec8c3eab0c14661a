package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hybridqa/hybridqa/internal/archive"
	"github.com/hybridqa/hybridqa/internal/docindex"
	"github.com/hybridqa/hybridqa/internal/embedding"
	"github.com/hybridqa/hybridqa/internal/observability"
)

const StatusIndexed = "processed and indexed"

type File struct {
	Name string
	Data []byte
}

type FileResult struct {
	Filename    string `json:"filename"`
	Status      string `json:"status,omitempty"`
	ChunksAdded int    `json:"chunks_added,omitempty"`
	Error       string `json:"error,omitempty"`
}

func (r FileResult) OK() bool {
	return r.Error == ""
}

type Summary struct {
	Message    string       `json:"message"`
	Results    []FileResult `json:"results"`
	ArchiveKey string       `json:"archive_key,omitempty"`
}

func (s Summary) Succeeded() int {
	count := 0
	for _, result := range s.Results {
		if result.OK() {
			count++
		}
	}
	return count
}

type Archiver interface {
	Write(ctx context.Context, chunks []archive.Chunk) (string, error)
}

// Ingestor turns uploaded files into indexed chunks. Each document becomes
// exactly one chunk, and re-uploading a file indexes it again.
type Ingestor struct {
	embedder embedding.Provider
	index    docindex.Index
	archiver Archiver
	logger   *slog.Logger
}

func New(embedder embedding.Provider, index docindex.Index, archiver Archiver, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{embedder: embedder, index: index, archiver: archiver, logger: logger}
}

func (i *Ingestor) Upload(ctx context.Context, files []File) Summary {
	summary := Summary{
		Message: fmt.Sprintf("%d files processed.", len(files)),
		Results: make([]FileResult, 0, len(files)),
	}

	var archived []archive.Chunk
	for _, file := range files {
		result, chunk := i.process(ctx, file)
		summary.Results = append(summary.Results, result)
		if chunk != nil {
			archived = append(archived, *chunk)
		}
	}

	if i.archiver != nil && len(archived) > 0 {
		key, err := i.archiver.Write(ctx, archived)
		if err != nil {
			i.logger.WarnContext(ctx, "document_archive_failed", slog.Any("error", err))
		} else {
			summary.ArchiveKey = key
		}
	}

	succeeded := summary.Succeeded()
	observability.ObserveDocumentsIngested(succeeded, len(files)-succeeded)
	if size, err := i.index.Size(ctx); err == nil {
		observability.SetIndexedChunks(size)
	}
	return summary
}

func (i *Ingestor) process(ctx context.Context, file File) (FileResult, *archive.Chunk) {
	failed := func(message string) (FileResult, *archive.Chunk) {
		return FileResult{Filename: file.Name, Error: message}, nil
	}
	if i.embedder == nil || i.index == nil {
		return failed("Embedding model or document index is not available.")
	}

	text, err := extractText(file.Name, file.Data)
	if errors.Is(err, ErrUnsupportedType) {
		return failed(fmt.Sprintf("Unsupported file type: %s", file.Name))
	}
	if err != nil {
		return failed(fmt.Sprintf("Failed to process document %s: %v", file.Name, err))
	}
	if strings.TrimSpace(text) == "" {
		return failed(fmt.Sprintf("No text could be extracted from %s.", file.Name))
	}

	vector, err := embedding.EmbedOne(ctx, i.embedder, text)
	if err != nil {
		return failed(fmt.Sprintf("Failed to process document %s: %v", file.Name, err))
	}
	ids, err := i.index.Add(ctx, []docindex.Entry{{Filename: file.Name, Content: text, Vector: vector}})
	if err != nil {
		return failed(fmt.Sprintf("Failed to process document %s: %v", file.Name, err))
	}

	i.logger.DebugContext(ctx, "document_indexed",
		slog.String("filename", file.Name),
		slog.Int64("chunk_id", ids[0]),
		slog.Int("characters", len(text)),
	)
	return FileResult{Filename: file.Name, Status: StatusIndexed, ChunksAdded: len(ids)},
		&archive.Chunk{ID: ids[0], Filename: file.Name, Content: text, Vector: vector}
}
