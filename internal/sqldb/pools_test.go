package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPoolsReuseHandlePerDSN(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	mock.ExpectPing()
	mock.ExpectClose()

	opened := 0
	pools := NewPoolsWithOpener(PoolConfig{MaxOpenConns: 4}, func(driverName, dataSource string) (*sql.DB, error) {
		opened++
		if driverName != "pgx" || dataSource != "postgresql://app@db/hr" {
			t.Fatalf("open(%q, %q)", driverName, dataSource)
		}
		return db, nil
	})

	for i := 0; i < 2; i++ {
		got, descriptor, err := pools.Get(context.Background(), "postgres://app@db/hr")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got != db || descriptor.Dialect != DialectPostgres {
			t.Fatalf("Get() = %p, %+v", got, descriptor)
		}
	}
	if opened != 1 {
		t.Fatalf("opened = %d, want 1", opened)
	}
	if err := pools.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPoolsDoNotCacheFailedPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	pools := NewPoolsWithOpener(PoolConfig{}, func(string, string) (*sql.DB, error) { return db, nil })
	if _, _, err := pools.Get(context.Background(), "sqlite:///missing.db"); err == nil {
		t.Fatal("Get() expected ping error")
	}
	if len(pools.dbs) != 0 {
		t.Fatalf("cached handles = %d, want 0", len(pools.dbs))
	}
}

func TestPoolsRejectEmptyDSN(t *testing.T) {
	pools := NewPoolsWithOpener(PoolConfig{}, func(string, string) (*sql.DB, error) {
		t.Fatal("opener should not be called")
		return nil, nil
	})
	if _, _, err := pools.Get(context.Background(), ""); !errors.Is(err, ErrEmptyDSN) {
		t.Fatalf("Get() error = %v, want ErrEmptyDSN", err)
	}
}

func TestPoolsOpenEmbeddedEnginesReadOnly(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"sqlite:///hr.db", "hr.db?_pragma=query_only(1)"},
		{"duckdb:////data/hr.duckdb", "/data/hr.duckdb?access_mode=READ_ONLY"},
		{"postgresql://app@db/hr", "postgresql://app@db/hr"},
	}
	for _, tt := range tests {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			t.Fatalf("sqlmock.New() error = %v", err)
		}
		mock.ExpectPing()
		var opened string
		pools := NewPoolsWithOpener(PoolConfig{ReadOnly: true}, func(_, dataSource string) (*sql.DB, error) {
			opened = dataSource
			return db, nil
		})
		if _, _, err := pools.Get(context.Background(), tt.dsn); err != nil {
			t.Fatalf("Get(%q) error = %v", tt.dsn, err)
		}
		if opened != tt.want {
			t.Fatalf("Get(%q) opened %q, want %q", tt.dsn, opened, tt.want)
		}
		_ = db.Close()
	}
}
