package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hybridqa/hybridqa/internal/activity"
	"github.com/hybridqa/hybridqa/internal/api"
	"github.com/hybridqa/hybridqa/internal/archive"
	"github.com/hybridqa/hybridqa/internal/config"
	"github.com/hybridqa/hybridqa/internal/docindex"
	"github.com/hybridqa/hybridqa/internal/docindex/pgvector"
	"github.com/hybridqa/hybridqa/internal/embedding"
	"github.com/hybridqa/hybridqa/internal/extract"
	"github.com/hybridqa/hybridqa/internal/ingest"
	"github.com/hybridqa/hybridqa/internal/llm"
	"github.com/hybridqa/hybridqa/internal/nl2sql"
	"github.com/hybridqa/hybridqa/internal/observability"
	"github.com/hybridqa/hybridqa/internal/query/sqlexec"
	"github.com/hybridqa/hybridqa/internal/retrieve"
	"github.com/hybridqa/hybridqa/internal/router"
	"github.com/hybridqa/hybridqa/internal/schema"
	"github.com/hybridqa/hybridqa/internal/sqldb"
	s3store "github.com/hybridqa/hybridqa/internal/storage/s3"
)

func main() {
	cfg, err := config.LoadFromEnv("hybridqa-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)
	pools := sqldb.NewPools(sqldb.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ReadOnly:        cfg.Database.ReadOnly,
	})
	defer func() { _ = pools.Close() }()

	var client llm.Client
	model := ""
	if cfg.AI.Configured() {
		openAI, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
		if err != nil {
			logger.Error("failed to initialize llm client", slog.Any("error", err))
			os.Exit(1)
		}
		client = openAI
		model = openAI.Model()
	} else {
		logger.Warn("llm not configured; sql generation and answer extraction are disabled")
	}

	embedder, err := embedding.NewProvider(cfg.Embedding)
	if err != nil {
		logger.Error("failed to initialize embedding provider", slog.Any("error", err))
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStartup()

	index, err := openIndex(startupCtx, cfg, pools, embedder.Dimensions())
	if err != nil {
		logger.Error("failed to open document index", slog.Any("error", err))
		os.Exit(1)
	}

	var archiver ingest.Archiver
	if cfg.Archive.Enabled {
		store, err := s3store.New(startupCtx, s3store.Config{
			Endpoint:         cfg.Archive.Endpoint,
			Region:           cfg.Archive.Region,
			Bucket:           cfg.Archive.Bucket,
			AccessKeyID:      cfg.Archive.AccessKeyID,
			SecretAccessKey:  cfg.Archive.SecretAccessKey,
			UseSSL:           cfg.Archive.UseSSL,
			Prefix:           cfg.Archive.Prefix,
			AutoCreateBucket: cfg.Archive.AutoCreateBucket,
		})
		if err != nil {
			logger.Error("failed to initialize document archive", slog.Any("error", err))
			os.Exit(1)
		}
		documentArchive := archive.New(store, embedder.Name(), logger)
		if cfg.Index.Backend == config.IndexBackendMemory {
			restored, err := documentArchive.Restore(startupCtx, index)
			if err != nil {
				logger.Error("failed to restore archived documents", slog.Any("error", err))
				os.Exit(1)
			}
			logger.Info("restored archived documents", slog.Int("chunks", restored))
		}
		archiver = documentArchive
	}
	if size, err := index.Size(startupCtx); err == nil {
		observability.SetIndexedChunks(size)
	}

	queryRouter := router.New(router.Dependencies{
		Discoverer: schema.NewSQLDiscoverer(pools, cfg.Database.QueryTimeout),
		Translator: nl2sql.NewGenerator(client, model),
		Executor: sqlexec.NewExecutor(pools, sqlexec.Config{
			Timeout:  cfg.Database.QueryTimeout,
			ReadOnly: cfg.Database.ReadOnly,
			MaxRows:  cfg.Database.MaxRows,
		}),
		Retriever: retrieve.New(embedder, index, logger),
		Extractor: extract.New(client, logger),
		Logger:    logger,
		DSN:       cfg.Database.DSN,
	})

	deps := api.Dependencies{
		Logger:    logger,
		Router:    queryRouter,
		Ingestor:  ingest.New(embedder, index, archiver, logger),
		Documents: index,
		Activity:  activity.NewLog(cfg.Activity.MaxEntries),
		Readiness: api.CombineReadinessChecks(
			api.CheckDatabaseConfigured(queryRouter),
			api.CheckDocumentIndex(index),
		),
		DependencyTimeout: time.Second,
	}

	handler := api.NewHandler(cfg, deps)
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server", slog.String("addr", cfg.HTTP.Address), slog.String("index_backend", cfg.Index.Backend))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func openIndex(ctx context.Context, cfg config.Config, pools *sqldb.Pools, dimensions int) (docindex.Index, error) {
	if cfg.Index.Backend != config.IndexBackendPGVector {
		return docindex.NewMemoryIndex(dimensions), nil
	}
	db, descriptor, err := pools.Get(ctx, cfg.Index.DSN)
	if err != nil {
		return nil, err
	}
	if descriptor.Dialect != sqldb.DialectPostgres {
		return nil, errors.New("pgvector index requires a postgresql connection string")
	}
	return pgvector.New(db, dimensions), nil
}
