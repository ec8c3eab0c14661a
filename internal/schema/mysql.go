package schema

import (
	"context"
	"database/sql"
)

type mysqlIntrospector struct{}

const mysqlTablesSQL = `SELECT TABLE_NAME
FROM INFORMATION_SCHEMA.TABLES
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
ORDER BY TABLE_NAME`

const mysqlColumnsSQL = `SELECT COLUMN_NAME, COLUMN_TYPE, COLUMN_KEY = 'PRI'
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`

const mysqlForeignKeysSQL = `SELECT CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
  AND REFERENCED_TABLE_NAME IS NOT NULL
ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`

func (mysqlIntrospector) tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, mysqlTablesSQL)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

func (mysqlIntrospector) columns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, mysqlColumnsSQL, table)
	if err != nil {
		return nil, err
	}
	return scanColumns(rows)
}

func (mysqlIntrospector) foreignKeys(ctx context.Context, db *sql.DB, table string) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, mysqlForeignKeysSQL, table)
	if err != nil {
		return nil, err
	}
	return scanGroupedForeignKeys(rows)
}
