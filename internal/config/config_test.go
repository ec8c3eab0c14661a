package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("hybridqa-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8000" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Database.ReadOnly {
		t.Fatal("Database.ReadOnly should default to true")
	}
	if cfg.Database.QueryTimeout != 30*time.Second {
		t.Fatalf("Database.QueryTimeout = %s", cfg.Database.QueryTimeout)
	}
	if cfg.AI.Configured() {
		t.Fatal("AI should not be configured without an API key")
	}
	if cfg.Embedding.Provider != EmbeddingProviderHash {
		t.Fatalf("Embedding.Provider = %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Fatalf("Embedding.Dimensions = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Index.Backend != IndexBackendMemory {
		t.Fatalf("Index.Backend = %q", cfg.Index.Backend)
	}
	if cfg.Archive.Enabled {
		t.Fatal("Archive.Enabled should default to false")
	}
	if cfg.Activity.MaxEntries != 10 {
		t.Fatalf("Activity.MaxEntries = %d", cfg.Activity.MaxEntries)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	cfg, err := Load("hybridqa-api", mapLookup(map[string]string{"HYBRIDQA_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Archive.UseSSL {
		t.Fatal("Archive.UseSSL should default to true in prod")
	}
	if cfg.Archive.AutoCreateBucket {
		t.Fatal("Archive.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	cfg, err := Load("hybridqa-api", mapLookup(map[string]string{
		"HYBRIDQA_PROFILE":                 "test",
		"HYBRIDQA_SERVICE_NAME":            "hybridqa-custom",
		"HYBRIDQA_HTTP_ADDR":               ":9999",
		"HYBRIDQA_HTTP_READ_TIMEOUT":       "2s",
		"HYBRIDQA_LOG_LEVEL":               "error",
		"HYBRIDQA_DATABASE_DSN":            "postgres://app@db:5432/hr",
		"HYBRIDQA_DATABASE_MAX_OPEN_CONNS": "42",
		"HYBRIDQA_DATABASE_QUERY_TIMEOUT":  "4s",
		"HYBRIDQA_DATABASE_READ_ONLY":      "false",
		"HYBRIDQA_DATABASE_MAX_ROWS":       "50",
		"HYBRIDQA_AI_BASE_URL":             "https://llm.example.com/v1",
		"HYBRIDQA_AI_API_KEY":              "secret-key",
		"HYBRIDQA_AI_MODEL":                "gemini-2.5-flash",
		"HYBRIDQA_AI_TEMPERATURE":          "0.3",
		"HYBRIDQA_AI_TIMEOUT":              "21s",
		"HYBRIDQA_EMBEDDING_PROVIDER":      "openai",
		"HYBRIDQA_EMBEDDING_DIMENSIONS":    "1536",
		"HYBRIDQA_INDEX_BACKEND":           "pgvector",
		"HYBRIDQA_INDEX_DSN":               "postgres://app@vectors:5432/index",
		"HYBRIDQA_ARCHIVE_ENABLED":         "true",
		"HYBRIDQA_ARCHIVE_BUCKET":          "docs",
		"HYBRIDQA_ARCHIVE_PREFIX":          "uploads",
		"HYBRIDQA_UPLOAD_MAX_BYTES":        "1024",
		"HYBRIDQA_ACTIVITY_MAX_ENTRIES":    "25",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "hybridqa-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Database.DSN != "postgres://app@db:5432/hr" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Database.MaxOpenConns != 42 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.QueryTimeout != 4*time.Second {
		t.Fatalf("Database.QueryTimeout = %s", cfg.Database.QueryTimeout)
	}
	if cfg.Database.ReadOnly {
		t.Fatal("Database.ReadOnly = true, want false")
	}
	if cfg.Database.MaxRows != 50 {
		t.Fatalf("Database.MaxRows = %d", cfg.Database.MaxRows)
	}
	if !cfg.AI.Configured() {
		t.Fatal("AI.Configured() = false, want true")
	}
	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Fatalf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AI.Temperature != 0.3 {
		t.Fatalf("AI.Temperature = %f", cfg.AI.Temperature)
	}
	if cfg.AI.Timeout != 21*time.Second {
		t.Fatalf("AI.Timeout = %s", cfg.AI.Timeout)
	}
	if cfg.Embedding.Provider != EmbeddingProviderOpenAI || cfg.Embedding.Dimensions != 1536 {
		t.Fatalf("Embedding = %+v", cfg.Embedding)
	}
	if cfg.Index.Backend != IndexBackendPGVector || cfg.Index.DSN == "" {
		t.Fatalf("Index = %+v", cfg.Index)
	}
	if !cfg.Archive.Enabled || cfg.Archive.Bucket != "docs" || cfg.Archive.Prefix != "uploads" {
		t.Fatalf("Archive = %+v", cfg.Archive)
	}
	if cfg.Upload.MaxBytes != 1024 {
		t.Fatalf("Upload.MaxBytes = %d", cfg.Upload.MaxBytes)
	}
	if cfg.Activity.MaxEntries != 25 {
		t.Fatalf("Activity.MaxEntries = %d", cfg.Activity.MaxEntries)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"HYBRIDQA_PROFILE": "oops"},
		{"HYBRIDQA_HTTP_READ_TIMEOUT": "NaN"},
		{"HYBRIDQA_DATABASE_MAX_OPEN_CONNS": "oops"},
		{"HYBRIDQA_DATABASE_READ_ONLY": "not-bool"},
		{"HYBRIDQA_AI_TEMPERATURE": "bad"},
		{"HYBRIDQA_LOG_LEVEL": "verbose"},
		{"HYBRIDQA_INDEX_BACKEND": "faiss"},
		{"HYBRIDQA_INDEX_BACKEND": "pgvector"},
		{"HYBRIDQA_EMBEDDING_PROVIDER": "python"},
		{"HYBRIDQA_EMBEDDING_DIMENSIONS": "0"},
		{"HYBRIDQA_ACTIVITY_MAX_ENTRIES": "-1"},
		{"HYBRIDQA_UPLOAD_MAX_BYTES": "lots"},
		{"HYBRIDQA_ARCHIVE_ENABLED": "true", "HYBRIDQA_ARCHIVE_BUCKET": ""},
	}
	for _, env := range tests {
		_, err := Load("hybridqa-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
