package schema

import (
	"context"
	"database/sql"
)

type postgresIntrospector struct{}

const postgresTablesSQL = `SELECT c.relname
FROM pg_class c
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = current_schema()
  AND c.relkind IN ('r', 'p')
ORDER BY c.relname`

const postgresColumnsSQL = `SELECT a.attname,
       format_type(a.atttypid, a.atttypmod),
       EXISTS (
         SELECT 1 FROM pg_index i
         WHERE i.indrelid = a.attrelid AND i.indisprimary AND a.attnum = ANY(i.indkey)
       )
FROM pg_attribute a
JOIN pg_class c ON c.oid = a.attrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
WHERE n.nspname = current_schema()
  AND c.relname = $1
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY a.attnum`

const postgresForeignKeysSQL = `SELECT con.conname, att.attname, ref.relname, refatt.attname
FROM pg_constraint con
JOIN pg_class c ON c.oid = con.conrelid
JOIN pg_namespace n ON n.oid = c.relnamespace
JOIN pg_class ref ON ref.oid = con.confrelid
CROSS JOIN LATERAL unnest(con.conkey, con.confkey) WITH ORDINALITY AS k(attnum, refattnum, ord)
JOIN pg_attribute att ON att.attrelid = con.conrelid AND att.attnum = k.attnum
JOIN pg_attribute refatt ON refatt.attrelid = con.confrelid AND refatt.attnum = k.refattnum
WHERE con.contype = 'f'
  AND n.nspname = current_schema()
  AND c.relname = $1
ORDER BY con.conname, k.ord`

func (postgresIntrospector) tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, postgresTablesSQL)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

func (postgresIntrospector) columns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, postgresColumnsSQL, table)
	if err != nil {
		return nil, err
	}
	return scanColumns(rows)
}

func (postgresIntrospector) foreignKeys(ctx context.Context, db *sql.DB, table string) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, postgresForeignKeysSQL, table)
	if err != nil {
		return nil, err
	}
	return scanGroupedForeignKeys(rows)
}
