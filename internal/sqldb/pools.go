package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "modernc.org/sqlite"
)

// Source hands out an open database handle for a connection string.
type Source interface {
	Get(ctx context.Context, dsn string) (*sql.DB, Descriptor, error)
}

type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
	// ReadOnly opens SQLite and DuckDB handles read-only.
	ReadOnly bool
}

type OpenFunc func(driverName, dataSource string) (*sql.DB, error)

// Pools keeps one *sql.DB per connection string for the process lifetime.
type Pools struct {
	cfg  PoolConfig
	open OpenFunc

	mu  sync.Mutex
	dbs map[string]pooled
}

type pooled struct {
	db         *sql.DB
	descriptor Descriptor
}

func NewPools(cfg PoolConfig) *Pools {
	return NewPoolsWithOpener(cfg, sql.Open)
}

func NewPoolsWithOpener(cfg PoolConfig, open OpenFunc) *Pools {
	if cfg.PingTimeout <= 0 {
		cfg.PingTimeout = 5 * time.Second
	}
	return &Pools{cfg: cfg, open: open, dbs: map[string]pooled{}}
}

func (p *Pools) Get(ctx context.Context, dsn string) (*sql.DB, Descriptor, error) {
	descriptor, err := Parse(dsn)
	if err != nil {
		return nil, Descriptor{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.dbs[dsn]; ok {
		return existing.db, existing.descriptor, nil
	}

	source := descriptor.DataSource
	if p.cfg.ReadOnly {
		source = descriptor.ReadOnlyDataSource()
	}
	db, err := p.open(descriptor.DriverName, source)
	if err != nil {
		return nil, Descriptor{}, fmt.Errorf("open %s db: %w", descriptor.Dialect, err)
	}
	if p.cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(p.cfg.MaxOpenConns)
	}
	if p.cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(p.cfg.MaxIdleConns)
	}
	if p.cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(p.cfg.ConnMaxIdleTime)
	}
	if p.cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(p.cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, p.cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, Descriptor{}, fmt.Errorf("ping %s db: %w", descriptor.Dialect, err)
	}

	p.dbs[dsn] = pooled{db: db, descriptor: descriptor}
	return db, descriptor, nil
}

func (p *Pools) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for dsn, entry := range p.dbs {
		if err := entry.db.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close %s db: %w", entry.descriptor.Dialect, err)
		}
		delete(p.dbs, dsn)
	}
	return firstErr
}
