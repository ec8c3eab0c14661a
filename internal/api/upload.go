package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/hybridqa/hybridqa/internal/activity"
	"github.com/hybridqa/hybridqa/internal/config"
	"github.com/hybridqa/hybridqa/internal/ingest"
)

const multipartMemory = 32 << 20

func handleUpload(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Ingestor == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "INGEST_NOT_CONFIGURED", "document ingestion is not configured", false, nil)
		return
	}

	if cfg.Upload.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.Upload.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(r.Context(), w, http.StatusRequestEntityTooLarge, "UPLOAD_TOO_LARGE", "upload exceeds the configured size limit", false, map[string]any{"limit_bytes": tooLarge.Limit})
			return
		}
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_MULTIPART", "invalid multipart upload", false, map[string]any{"details": err.Error()})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "FILES_REQUIRED", "No files were uploaded.", false, nil)
		return
	}

	files := make([]ingest.File, 0, len(headers))
	for _, header := range headers {
		data, err := readPart(header)
		if err != nil {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_MULTIPART", "failed to read uploaded file", false, map[string]any{"filename": header.Filename, "details": err.Error()})
			return
		}
		files = append(files, ingest.File{Name: header.Filename, Data: data})
	}

	summary := deps.Ingestor.Upload(r.Context(), files)
	succeeded := summary.Succeeded()
	status := activity.StatusSuccess
	if succeeded == 0 {
		status = activity.StatusError
	}
	recordActivity(deps, activity.TypeUpload, fmt.Sprintf("Processed %d / %d documents.", succeeded, len(files)), status)
	writeJSON(w, http.StatusOK, summary)
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()
	return io.ReadAll(file)
}
