package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hybridqa/hybridqa/internal/activity"
	"github.com/hybridqa/hybridqa/internal/config"
	"github.com/hybridqa/hybridqa/internal/ingest"
	"github.com/hybridqa/hybridqa/internal/observability"
	"github.com/hybridqa/hybridqa/internal/router"
	"github.com/hybridqa/hybridqa/internal/schema"
)

type ReadinessCheck func(ctx context.Context) error

type QueryRouter interface {
	Process(ctx context.Context, question string) (router.Record, error)
	Connect(ctx context.Context, dsn string) (*schema.Model, error)
	CurrentDSN() string
	CurrentSchema() *schema.Model
	Stats() router.Stats
}

type DocumentIngestor interface {
	Upload(ctx context.Context, files []ingest.File) ingest.Summary
}

type DocumentCounter interface {
	Size(ctx context.Context) (int, error)
}

type ActivityLog interface {
	Record(kind activity.Type, description, status string) activity.Entry
	Recent() []activity.Entry
}

type Dependencies struct {
	Logger            *slog.Logger
	Readiness         ReadinessCheck
	DependencyTimeout time.Duration
	Router            QueryRouter
	Ingestor          DocumentIngestor
	Documents         DocumentCounter
	Activity          ActivityLog
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})

	mux.HandleFunc("GET /v1/ready", func(w http.ResponseWriter, r *http.Request) {
		if deps.Readiness == nil {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
			return
		}
		timeout := deps.DependencyTimeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := deps.Readiness(ctx); err != nil {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "NOT_READY", err.Error(), true, nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	})

	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("POST /v1/connect-database", func(w http.ResponseWriter, r *http.Request) {
		handleConnect(deps, w, r)
	})
	mux.HandleFunc("GET /v1/schema", func(w http.ResponseWriter, r *http.Request) {
		handleSchema(deps, w, r)
	})
	mux.HandleFunc("POST /v1/query", func(w http.ResponseWriter, r *http.Request) {
		handleQuery(deps, w, r)
	})
	mux.HandleFunc("POST /v1/upload-documents", func(w http.ResponseWriter, r *http.Request) {
		handleUpload(cfg, deps, w, r)
	})
	mux.HandleFunc("GET /v1/dashboard", func(w http.ResponseWriter, r *http.Request) {
		handleDashboard(deps, w, r)
	})

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

// CheckDatabaseConfigured fails until a connection string is known, either
// from configuration or from a connect call.
func CheckDatabaseConfigured(queryRouter QueryRouter) ReadinessCheck {
	return func(_ context.Context) error {
		if queryRouter == nil || queryRouter.CurrentDSN() == "" {
			return errors.New("database connection string is not configured")
		}
		return nil
	}
}

func CheckDocumentIndex(documents DocumentCounter) ReadinessCheck {
	return func(ctx context.Context) error {
		if documents == nil {
			return errors.New("document index is not configured")
		}
		_, err := documents.Size(ctx)
		return err
	}
}

func CombineReadinessChecks(checks ...ReadinessCheck) ReadinessCheck {
	filtered := make([]ReadinessCheck, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}
	return func(ctx context.Context) error {
		for _, check := range filtered {
			if err := check(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

func recordActivity(deps Dependencies, kind activity.Type, description, status string) {
	if deps.Activity != nil {
		deps.Activity.Record(kind, description, status)
	}
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, retryable bool, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"retryable":  retryable,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
