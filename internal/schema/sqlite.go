package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

type sqliteIntrospector struct{}

const sqliteTablesSQL = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`

func (sqliteIntrospector) tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, sqliteTablesSQL)
	if err != nil {
		return nil, err
	}
	return scanNames(rows)
}

func (sqliteIntrospector) columns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info("%s")`, quoteSQLiteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []Column
	for rows.Next() {
		var cid, notNull, pk int
		var name, declaredType string
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &name, &declaredType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, Column{Name: name, Type: strings.ToUpper(declaredType), IsPrimaryKey: pk > 0})
	}
	return columns, rows.Err()
}

func (sqliteIntrospector) foreignKeys(ctx context.Context, db *sql.DB, table string) ([]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list("%s")`, quoteSQLiteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	groups := newForeignKeyGroups()
	for rows.Next() {
		var id, seq int
		var referredTable, from, onUpdate, onDelete, match string
		var to sql.NullString
		if err := rows.Scan(&id, &seq, &referredTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}
		groups.add(strconv.Itoa(id), from, referredTable, to.String)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups.list(), nil
}

func quoteSQLiteIdent(name string) string {
	return strings.ReplaceAll(name, `"`, `""`)
}
