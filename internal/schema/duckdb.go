package schema

import (
	"context"
	"database/sql"
)

type duckdbIntrospector struct{}

const duckdbTablesSQL = `SELECT table_name
FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`

const duckdbColumnsSQL = `SELECT c.column_name,
       c.data_type,
       EXISTS (
         SELECT 1 FROM duckdb_constraints() k
         WHERE k.constraint_type = 'PRIMARY KEY'
           AND k.schema_name = c.table_schema
           AND k.table_name = c.table_name
           AND list_contains(k.constraint_column_names, c.column_name)
       )
FROM information_schema.columns c
WHERE c.table_schema = current_schema() AND c.table_name = ?
ORDER BY c.ordinal_position`

// unnest calls in one projection are zipped, pairing each constrained
// column with the referenced column at the same position.
const duckdbForeignKeysSQL = `SELECT CAST(constraint_index AS VARCHAR),
       unnest(constraint_column_names),
       referenced_table,
       unnest(referenced_column_names)
FROM duckdb_constraints()
WHERE constraint_type = 'FOREIGN KEY'
  AND schema_name = current_schema()
  AND table_name = ?
ORDER BY constraint_index`

func (duckdbIntrospector) tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, duckdbTablesSQL)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

func (duckdbIntrospector) columns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, duckdbColumnsSQL, table)
	if err != nil {
		return nil, err
	}
	return scanColumns(rows)
}

func (duckdbIntrospector) foreignKeys(ctx context.Context, db *sql.DB, table string) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, duckdbForeignKeysSQL, table)
	if err != nil {
		return nil, err
	}
	return scanGroupedForeignKeys(rows)
}
