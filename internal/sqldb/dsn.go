package sqldb

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgresql"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
	DialectDuckDB   Dialect = "duckdb"
)

var (
	ErrEmptyDSN           = errors.New("connection string cannot be empty")
	ErrUnsupportedDialect = errors.New("unsupported database dialect")
)

// Descriptor is a parsed connection string: which driver to load and the
// data source name in the form that driver expects.
type Descriptor struct {
	Dialect    Dialect
	DriverName string
	DataSource string
}

// Parse accepts URL-style connection strings, including SQLAlchemy-style
// "+driver" scheme suffixes such as postgresql+psycopg2://.
func Parse(dsn string) (Descriptor, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return Descriptor{}, ErrEmptyDSN
	}
	if strings.HasPrefix(trimmed, "file:") {
		return Descriptor{Dialect: DialectSQLite, DriverName: "sqlite", DataSource: trimmed}, nil
	}

	scheme, rest, ok := strings.Cut(trimmed, "://")
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: missing scheme in connection string", ErrUnsupportedDialect)
	}
	base, _, _ := strings.Cut(strings.ToLower(scheme), "+")

	switch base {
	case "postgres", "postgresql":
		return Descriptor{Dialect: DialectPostgres, DriverName: "pgx", DataSource: "postgresql://" + rest}, nil
	case "mysql", "mariadb":
		source, err := mysqlDataSource(rest)
		if err != nil {
			return Descriptor{}, err
		}
		return Descriptor{Dialect: DialectMySQL, DriverName: "mysql", DataSource: source}, nil
	case "sqlite", "sqlite3":
		return Descriptor{Dialect: DialectSQLite, DriverName: "sqlite", DataSource: filePath(rest, ":memory:")}, nil
	case "duckdb":
		return Descriptor{Dialect: DialectDuckDB, DriverName: "duckdb", DataSource: filePath(rest, "")}, nil
	default:
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnsupportedDialect, scheme)
	}
}

// ReadOnlyDataSource returns the data source with the embedded engines
// opened read-only: SQLite via the query_only pragma and file-backed DuckDB
// via access_mode. Server dialects are returned unchanged; their read-only
// guarantee comes from a READ ONLY transaction per statement.
func (d Descriptor) ReadOnlyDataSource() string {
	switch d.Dialect {
	case DialectSQLite:
		return appendQueryParam(d.DataSource, "_pragma=query_only(1)")
	case DialectDuckDB:
		if d.DataSource == "" {
			return d.DataSource
		}
		return appendQueryParam(d.DataSource, "access_mode=READ_ONLY")
	default:
		return d.DataSource
	}
}

func appendQueryParam(source, param string) string {
	if strings.Contains(source, "?") {
		return source + "&" + param
	}
	return source + "?" + param
}

// filePath turns the part after "scheme://" into a file path: one leading
// slash separates the empty host from the path, so "///data.db" is relative
// and "////var/data.db" is absolute.
func filePath(rest, memory string) string {
	path := strings.TrimPrefix(rest, "/")
	if path == "" || path == ":memory:" {
		return memory
	}
	return path
}

func mysqlDataSource(rest string) (string, error) {
	u, err := url.Parse("mysql://" + rest)
	if err != nil {
		return "", fmt.Errorf("parse mysql connection string: %w", err)
	}

	cfg := mysql.NewConfig()
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}
	cfg.Net = "tcp"
	host := u.Host
	if host == "" {
		host = "127.0.0.1"
	}
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "3306")
	}
	cfg.Addr = host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	for key, values := range u.Query() {
		if len(values) == 0 || key == "charset" {
			continue
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		cfg.Params[key] = values[0]
	}
	return cfg.FormatDSN(), nil
}
