package archive

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// Record is one archived chunk together with the vector it was indexed with.
type Record struct {
	UploadID         string    `parquet:"upload_id"`
	ChunkID          int64     `parquet:"chunk_id"`
	Filename         string    `parquet:"filename"`
	Content          string    `parquet:"content"`
	EmbeddingModel   string    `parquet:"embedding_model"`
	Embedding        []float32 `parquet:"embedding"`
	UploadedAtUnixMs int64     `parquet:"uploaded_at_unix_ms"`
}

func EncodeRecords(records []Record) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("records are required")
	}
	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[Record](buf)
	if _, err := writer.Write(records); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeRecords(data []byte) ([]Record, error) {
	records, err := parquet.Read[Record](bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	return records, nil
}
