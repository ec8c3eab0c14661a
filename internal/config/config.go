package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type LookupFunc func(string) (string, bool)

type Profile string

const (
	ProfileDev  Profile = "dev"
	ProfileTest Profile = "test"
	ProfileProd Profile = "prod"
)

const (
	IndexBackendMemory   = "memory"
	IndexBackendPGVector = "pgvector"

	EmbeddingProviderHash   = "hash"
	EmbeddingProviderOpenAI = "openai"
)

type Config struct {
	Profile       Profile
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	AI            AIConfig
	Embedding     EmbeddingConfig
	Index         IndexConfig
	Archive       ArchiveConfig
	Upload        UploadConfig
	Activity      ActivityConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig describes the relational database questions are answered
// against. DSN may be empty; clients then supply one via connect-database.
type DatabaseConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
	ReadOnly        bool
	MaxRows         int
}

type AIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

func (c AIConfig) Configured() bool {
	return c.APIKey != ""
}

type EmbeddingConfig struct {
	Provider   string
	Model      string
	Dimensions int
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
}

type IndexConfig struct {
	Backend string
	DSN     string
}

type ArchiveConfig struct {
	Enabled          bool
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	Prefix           string
	AutoCreateBucket bool
}

type UploadConfig struct {
	MaxBytes int64
}

type ActivityConfig struct {
	MaxEntries int
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

func LoadFromEnv(serviceName string) (Config, error) {
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	profile := ProfileDev
	if raw, ok := lookup("HYBRIDQA_PROFILE"); ok {
		profile = Profile(strings.ToLower(strings.TrimSpace(raw)))
	}
	if !isValidProfile(profile) {
		return Config{}, fmt.Errorf("invalid HYBRIDQA_PROFILE: %q", profile)
	}

	cfg := defaultsForProfile(profile)
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	appliers := []func() error{
		func() error { return applyString(lookup, "HYBRIDQA_SERVICE_NAME", &cfg.Service.Name) },
		func() error { return applyString(lookup, "HYBRIDQA_HTTP_ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "HYBRIDQA_HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "HYBRIDQA_HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "HYBRIDQA_HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },
		func() error { return applyString(lookup, "HYBRIDQA_DATABASE_DSN", &cfg.Database.DSN) },
		func() error { return applyInt(lookup, "HYBRIDQA_DATABASE_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns) },
		func() error { return applyInt(lookup, "HYBRIDQA_DATABASE_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns) },
		func() error {
			return applyDuration(lookup, "HYBRIDQA_DATABASE_CONN_MAX_IDLE_TIME", &cfg.Database.ConnMaxIdleTime)
		},
		func() error {
			return applyDuration(lookup, "HYBRIDQA_DATABASE_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)
		},
		func() error {
			return applyDuration(lookup, "HYBRIDQA_DATABASE_QUERY_TIMEOUT", &cfg.Database.QueryTimeout)
		},
		func() error { return applyBool(lookup, "HYBRIDQA_DATABASE_READ_ONLY", &cfg.Database.ReadOnly) },
		func() error { return applyInt(lookup, "HYBRIDQA_DATABASE_MAX_ROWS", &cfg.Database.MaxRows) },
		func() error { return applyString(lookup, "HYBRIDQA_AI_BASE_URL", &cfg.AI.BaseURL) },
		func() error { return applyString(lookup, "HYBRIDQA_AI_API_KEY", &cfg.AI.APIKey) },
		func() error { return applyString(lookup, "HYBRIDQA_AI_MODEL", &cfg.AI.Model) },
		func() error { return applyFloat(lookup, "HYBRIDQA_AI_TEMPERATURE", &cfg.AI.Temperature) },
		func() error { return applyDuration(lookup, "HYBRIDQA_AI_TIMEOUT", &cfg.AI.Timeout) },
		func() error { return applyString(lookup, "HYBRIDQA_EMBEDDING_PROVIDER", &cfg.Embedding.Provider) },
		func() error { return applyString(lookup, "HYBRIDQA_EMBEDDING_MODEL", &cfg.Embedding.Model) },
		func() error { return applyInt(lookup, "HYBRIDQA_EMBEDDING_DIMENSIONS", &cfg.Embedding.Dimensions) },
		func() error { return applyString(lookup, "HYBRIDQA_EMBEDDING_BASE_URL", &cfg.Embedding.BaseURL) },
		func() error { return applyString(lookup, "HYBRIDQA_EMBEDDING_API_KEY", &cfg.Embedding.APIKey) },
		func() error { return applyDuration(lookup, "HYBRIDQA_EMBEDDING_TIMEOUT", &cfg.Embedding.Timeout) },
		func() error { return applyString(lookup, "HYBRIDQA_INDEX_BACKEND", &cfg.Index.Backend) },
		func() error { return applyString(lookup, "HYBRIDQA_INDEX_DSN", &cfg.Index.DSN) },
		func() error { return applyBool(lookup, "HYBRIDQA_ARCHIVE_ENABLED", &cfg.Archive.Enabled) },
		func() error { return applyString(lookup, "HYBRIDQA_ARCHIVE_ENDPOINT", &cfg.Archive.Endpoint) },
		func() error { return applyString(lookup, "HYBRIDQA_ARCHIVE_REGION", &cfg.Archive.Region) },
		func() error { return applyString(lookup, "HYBRIDQA_ARCHIVE_BUCKET", &cfg.Archive.Bucket) },
		func() error { return applyString(lookup, "HYBRIDQA_ARCHIVE_ACCESS_KEY", &cfg.Archive.AccessKeyID) },
		func() error { return applyString(lookup, "HYBRIDQA_ARCHIVE_SECRET_KEY", &cfg.Archive.SecretAccessKey) },
		func() error { return applyBool(lookup, "HYBRIDQA_ARCHIVE_USE_SSL", &cfg.Archive.UseSSL) },
		func() error { return applyString(lookup, "HYBRIDQA_ARCHIVE_PREFIX", &cfg.Archive.Prefix) },
		func() error {
			return applyBool(lookup, "HYBRIDQA_ARCHIVE_AUTO_CREATE_BUCKET", &cfg.Archive.AutoCreateBucket)
		},
		func() error { return applyInt64(lookup, "HYBRIDQA_UPLOAD_MAX_BYTES", &cfg.Upload.MaxBytes) },
		func() error { return applyInt(lookup, "HYBRIDQA_ACTIVITY_MAX_ENTRIES", &cfg.Activity.MaxEntries) },
		func() error { return applyBool(lookup, "HYBRIDQA_LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "HYBRIDQA_LOG_LEVEL", &cfg.Observability.LogLevel) },
	}
	for _, apply := range appliers {
		if err := apply(); err != nil {
			return Config{}, err
		}
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	switch cfg.Index.Backend {
	case IndexBackendMemory:
	case IndexBackendPGVector:
		if cfg.Index.DSN == "" {
			return Config{}, fmt.Errorf("HYBRIDQA_INDEX_DSN is required for the %s index backend", IndexBackendPGVector)
		}
	default:
		return Config{}, fmt.Errorf("invalid HYBRIDQA_INDEX_BACKEND: %q", cfg.Index.Backend)
	}
	switch cfg.Embedding.Provider {
	case EmbeddingProviderHash, EmbeddingProviderOpenAI:
	default:
		return Config{}, fmt.Errorf("invalid HYBRIDQA_EMBEDDING_PROVIDER: %q", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimensions <= 0 {
		return Config{}, fmt.Errorf("embedding dimensions must be positive")
	}
	if cfg.Activity.MaxEntries <= 0 {
		return Config{}, fmt.Errorf("activity max entries must be positive")
	}
	if cfg.Archive.Enabled && cfg.Archive.Bucket == "" {
		return Config{}, fmt.Errorf("HYBRIDQA_ARCHIVE_BUCKET is required when the archive is enabled")
	}
	return cfg, nil
}

func defaultsForProfile(profile Profile) Config {
	cfg := Config{
		Profile: profile,
		Service: ServiceConfig{Name: "hybridqa-api"},
		HTTP: HTTPConfig{
			Address:      ":8000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxIdleTime: 5 * time.Minute,
			ConnMaxLifetime: 30 * time.Minute,
			QueryTimeout:    30 * time.Second,
			ReadOnly:        true,
			MaxRows:         1000,
		},
		AI: AIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-4o-mini",
			Temperature: 0,
			Timeout:     30 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:   EmbeddingProviderHash,
			Model:      "text-embedding-3-small",
			Dimensions: 384,
			BaseURL:    "https://api.openai.com/v1",
			Timeout:    30 * time.Second,
		},
		Index: IndexConfig{
			Backend: IndexBackendMemory,
		},
		Archive: ArchiveConfig{
			Enabled:          false,
			Endpoint:         "localhost:9000",
			Region:           "us-east-1",
			Bucket:           "hybridqa",
			AccessKeyID:      "minio",
			SecretAccessKey:  "miniostorage",
			UseSSL:           false,
			AutoCreateBucket: true,
		},
		Upload: UploadConfig{
			MaxBytes: 32 << 20,
		},
		Activity: ActivityConfig{
			MaxEntries: 10,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelDebug,
			LogJSON:  true,
		},
	}

	switch profile {
	case ProfileTest:
		cfg.HTTP.Address = ":18000"
		cfg.Observability.LogLevel = slog.LevelWarn
	case ProfileProd:
		cfg.Observability.LogLevel = slog.LevelInfo
		cfg.Archive.UseSSL = true
		cfg.Archive.AutoCreateBucket = false
	}

	return cfg
}

func isValidProfile(profile Profile) bool {
	switch profile {
	case ProfileDev, ProfileTest, ProfileProd:
		return true
	default:
		return false
	}
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyFloat(lookup LookupFunc, key string, dst *float64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = value
	return nil
}

func applyLogLevel(lookup LookupFunc, key string, dst *slog.Level) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "debug":
		*dst = slog.LevelDebug
	case "info":
		*dst = slog.LevelInfo
	case "warn", "warning":
		*dst = slog.LevelWarn
	case "error":
		*dst = slog.LevelError
	default:
		return fmt.Errorf("invalid %s: %q", key, raw)
	}
	return nil
}
