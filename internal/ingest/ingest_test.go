package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hybridqa/hybridqa/internal/archive"
	"github.com/hybridqa/hybridqa/internal/docindex"
	"github.com/hybridqa/hybridqa/internal/embedding"
)

func newIngestor(t *testing.T, archiver Archiver) (*Ingestor, *docindex.MemoryIndex) {
	t.Helper()
	provider, err := embedding.NewHashProvider(32)
	if err != nil {
		t.Fatalf("NewHashProvider() error = %v", err)
	}
	index := docindex.NewMemoryIndex(32)
	return New(provider, index, archiver, nil), index
}

func TestUploadIndexesOneChunkPerDocument(t *testing.T) {
	ingestor, index := newIngestor(t, nil)

	summary := ingestor.Upload(context.Background(), []File{
		{Name: "alice.txt", Data: []byte("Alice Smith. GitHub: github.com/alice")},
		{Name: "notes.md", Data: []byte("# Notes\nQuarterly review went well.")},
	})
	if summary.Message != "2 files processed." {
		t.Fatalf("Message = %q", summary.Message)
	}
	for _, result := range summary.Results {
		if result.Status != StatusIndexed || result.ChunksAdded != 1 {
			t.Fatalf("result = %+v", result)
		}
	}
	if size, _ := index.Size(context.Background()); size != 2 {
		t.Fatalf("Size() = %d, want 2", size)
	}
}

func TestUploadSameFileTwiceAddsTwoChunks(t *testing.T) {
	ingestor, index := newIngestor(t, nil)
	file := File{Name: "alice.txt", Data: []byte("Alice Smith")}
	ingestor.Upload(context.Background(), []File{file})
	ingestor.Upload(context.Background(), []File{file})
	if size, _ := index.Size(context.Background()); size != 2 {
		t.Fatalf("Size() = %d, want 2", size)
	}
}

func TestUploadReportsPerFileErrors(t *testing.T) {
	ingestor, index := newIngestor(t, nil)

	summary := ingestor.Upload(context.Background(), []File{
		{Name: "photo.png", Data: []byte{0x89, 0x50}},
		{Name: "blank.txt", Data: []byte("   \n")},
		{Name: "broken.pdf", Data: []byte("not a pdf")},
		{Name: "ok.txt", Data: []byte("fine")},
	})
	want := []string{
		"Unsupported file type: photo.png",
		"No text could be extracted from blank.txt.",
		"Failed to process document broken.pdf:",
		"",
	}
	for i, prefix := range want {
		got := summary.Results[i]
		if got.Filename == "" {
			t.Fatalf("result %d has no filename", i)
		}
		if prefix == "" {
			if !got.OK() {
				t.Fatalf("result %d = %+v, want success", i, got)
			}
			continue
		}
		if !strings.HasPrefix(got.Error, prefix) {
			t.Fatalf("result %d error = %q, want prefix %q", i, got.Error, prefix)
		}
	}
	if summary.Succeeded() != 1 {
		t.Fatalf("Succeeded() = %d", summary.Succeeded())
	}
	if size, _ := index.Size(context.Background()); size != 1 {
		t.Fatalf("Size() = %d, want 1", size)
	}
}

func TestUploadArchivesIndexedChunks(t *testing.T) {
	archiver := &fakeArchiver{key: "documents/date=2026-02-19/upload-x.parquet"}
	ingestor, _ := newIngestor(t, archiver)

	summary := ingestor.Upload(context.Background(), []File{
		{Name: "a.txt", Data: []byte("alpha")},
		{Name: "b.exe", Data: []byte("nope")},
	})
	if summary.ArchiveKey != archiver.key {
		t.Fatalf("ArchiveKey = %q", summary.ArchiveKey)
	}
	if len(archiver.chunks) != 1 || archiver.chunks[0].Filename != "a.txt" || len(archiver.chunks[0].Vector) != 32 {
		t.Fatalf("archived = %+v", archiver.chunks)
	}
}

func TestUploadSurvivesArchiveFailure(t *testing.T) {
	ingestor, index := newIngestor(t, &fakeArchiver{err: errors.New("bucket unavailable")})
	summary := ingestor.Upload(context.Background(), []File{{Name: "a.txt", Data: []byte("alpha")}})
	if !summary.Results[0].OK() || summary.ArchiveKey != "" {
		t.Fatalf("summary = %+v", summary)
	}
	if size, _ := index.Size(context.Background()); size != 1 {
		t.Fatalf("Size() = %d, want 1", size)
	}
}

func TestExtractTextFormats(t *testing.T) {
	html, err := extractText("page.HTML", []byte("<html><body><h1>Alice</h1><p>Email: <a href=\"mailto:a@example.com\">a@example.com</a></p></body></html>"))
	if err != nil {
		t.Fatalf("extractText(html) error = %v", err)
	}
	if !strings.Contains(html, "Alice") || !strings.Contains(html, "a@example.com") || strings.Contains(html, "<h1>") {
		t.Fatalf("html text = %q", html)
	}

	docx := buildDocx(t, `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`+
		`<w:p><w:r><w:t>Alice Smith</w:t></w:r></w:p>`+
		`<w:p><w:r><w:t xml:space="preserve">Skills: </w:t></w:r><w:r><w:t>Go</w:t></w:r></w:p>`+
		`</w:body></w:document>`)
	text, err := extractText("cv.docx", docx)
	if err != nil {
		t.Fatalf("extractText(docx) error = %v", err)
	}
	if text != "Alice Smith\nSkills: Go" {
		t.Fatalf("docx text = %q", text)
	}

	if _, err := extractText("cv.docx", []byte("plain")); err == nil {
		t.Fatal("expected error for invalid docx")
	}
	if _, err := extractText("binary.txt", []byte{0xff, 0xfe, 0xfd}); err == nil {
		t.Fatal("expected error for invalid UTF-8")
	}
}

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	part, err := writer.Create("word/document.xml")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := part.Write([]byte(documentXML)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return buf.Bytes()
}

type fakeArchiver struct {
	key    string
	err    error
	chunks []archive.Chunk
}

func (f *fakeArchiver) Write(_ context.Context, chunks []archive.Chunk) (string, error) {
	f.chunks = append(f.chunks, chunks...)
	return f.key, f.err
}
