package sqlexec

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hybridqa/hybridqa/internal/query"
)

func classify(err error) query.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return query.ErrorKindTimeout
	}
	if errors.Is(err, query.ErrReadOnly) {
		return query.ErrorKindPermission
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(pgErr.Code)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1054, 1064, 1146, 1149:
			return query.ErrorKindSyntax
		case 1044, 1045, 1142, 1143, 1227, 1290, 1792:
			return query.ErrorKindPermission
		case 3024:
			return query.ErrorKindTimeout
		}
		return query.ErrorKindOther
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return query.ErrorKindConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return query.ErrorKindTimeout
		}
		return query.ErrorKindConnection
	}

	return classifyMessage(err.Error())
}

func classifySQLState(code string) query.ErrorKind {
	switch {
	case code == "42501", code == "25006", strings.HasPrefix(code, "28"):
		return query.ErrorKindPermission
	case strings.HasPrefix(code, "42"):
		return query.ErrorKindSyntax
	case strings.HasPrefix(code, "08"):
		return query.ErrorKindConnection
	case code == "57014":
		return query.ErrorKindTimeout
	default:
		return query.ErrorKindOther
	}
}

// classifyMessage covers drivers without typed errors (SQLite, DuckDB).
func classifyMessage(message string) query.ErrorKind {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, "syntax error", "parser error", "no such table", "no such column", "catalog error", "binder error"):
		return query.ErrorKindSyntax
	case containsAny(lower, "readonly", "read-only", "read only", "permission denied", "not authorized"):
		return query.ErrorKindPermission
	case containsAny(lower, "interrupted", "timeout", "timed out"):
		return query.ErrorKindTimeout
	case containsAny(lower, "unable to open database", "connection refused", "io error"):
		return query.ErrorKindConnection
	default:
		return query.ErrorKindOther
	}
}

func containsAny(value string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}
