package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hybridqa/hybridqa/internal/docindex"
	"github.com/hybridqa/hybridqa/internal/storage"
)

const contentType = "application/vnd.apache.parquet"

type Chunk struct {
	ID       int64
	Filename string
	Content  string
	Vector   []float32
}

// Archive writes each upload batch to the object store as one parquet
// object and can replay those objects into an empty index.
type Archive struct {
	store          storage.ObjectStore
	embeddingModel string
	logger         *slog.Logger
	now            func() time.Time
	newID          func() string
}

func New(store storage.ObjectStore, embeddingModel string, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{
		store:          store,
		embeddingModel: embeddingModel,
		logger:         logger,
		now:            time.Now,
		newID:          func() string { return uuid.NewString() },
	}
}

func (a *Archive) Write(ctx context.Context, chunks []Chunk) (string, error) {
	if len(chunks) == 0 {
		return "", fmt.Errorf("chunks are required")
	}
	uploadID := a.newID()
	uploadedAt := a.now().UTC()
	key, err := storage.ArchiveKey(uploadID, uploadedAt)
	if err != nil {
		return "", err
	}

	records := make([]Record, 0, len(chunks))
	for _, chunk := range chunks {
		records = append(records, Record{
			UploadID:         uploadID,
			ChunkID:          chunk.ID,
			Filename:         chunk.Filename,
			Content:          chunk.Content,
			EmbeddingModel:   a.embeddingModel,
			Embedding:        chunk.Vector,
			UploadedAtUnixMs: uploadedAt.UnixMilli(),
		})
	}
	data, err := EncodeRecords(records)
	if err != nil {
		return "", err
	}
	if err := a.store.Put(ctx, key, data, contentType); err != nil {
		return "", fmt.Errorf("archive upload %s: %w", uploadID, err)
	}
	return key, nil
}

// Restore re-adds every archived chunk embedded with the current model, in
// upload order. Chunks from other embedding models are skipped.
func (a *Archive) Restore(ctx context.Context, index docindex.Index) (int, error) {
	objects, err := a.store.List(ctx, storage.DocumentArchiveRoot)
	if err != nil {
		return 0, err
	}

	var records []Record
	skipped := 0
	for _, object := range objects {
		if _, _, ok := storage.ParseArchiveKey(object.Key); !ok {
			continue
		}
		batch, err := a.read(ctx, object.Key)
		if err != nil {
			return 0, err
		}
		for _, record := range batch {
			if record.EmbeddingModel != a.embeddingModel {
				skipped++
				continue
			}
			records = append(records, record)
		}
	}
	if skipped > 0 {
		a.logger.WarnContext(ctx, "archive_restore_skipped_chunks",
			slog.Int("skipped", skipped),
			slog.String("embedding_model", a.embeddingModel),
		)
	}
	if len(records) == 0 {
		return 0, nil
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].UploadedAtUnixMs != records[j].UploadedAtUnixMs {
			return records[i].UploadedAtUnixMs < records[j].UploadedAtUnixMs
		}
		return records[i].ChunkID < records[j].ChunkID
	})
	entries := make([]docindex.Entry, 0, len(records))
	for _, record := range records {
		entries = append(entries, docindex.Entry{Filename: record.Filename, Content: record.Content, Vector: record.Embedding})
	}
	if _, err := index.Add(ctx, entries); err != nil {
		return 0, fmt.Errorf("restore archived chunks: %w", err)
	}
	return len(entries), nil
}

func (a *Archive) read(ctx context.Context, key string) ([]Record, error) {
	reader, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get archive object %q: %w", key, err)
	}
	defer func() { _ = reader.Close() }()
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read archive object %q: %w", key, err)
	}
	records, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("decode archive object %q: %w", key, err)
	}
	return records, nil
}
