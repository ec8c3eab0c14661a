package schema

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hybridqa/hybridqa/internal/sqldb"
)

type Discoverer interface {
	Discover(ctx context.Context, dsn string) (*Model, error)
}

type introspector interface {
	tables(ctx context.Context, db *sql.DB) ([]string, error)
	columns(ctx context.Context, db *sql.DB, table string) ([]Column, error)
	foreignKeys(ctx context.Context, db *sql.DB, table string) ([]ForeignKey, error)
}

// SQLDiscoverer reads table, column, primary key and foreign key metadata
// from the database catalog of whichever dialect the DSN names.
type SQLDiscoverer struct {
	source  sqldb.Source
	timeout time.Duration
}

func NewSQLDiscoverer(source sqldb.Source, timeout time.Duration) *SQLDiscoverer {
	return &SQLDiscoverer{source: source, timeout: timeout}
}

func (d *SQLDiscoverer) Discover(ctx context.Context, dsn string) (*Model, error) {
	if d.source == nil {
		return nil, fmt.Errorf("database source is required")
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	db, descriptor, err := d.source.Get(ctx, dsn)
	if err != nil {
		return nil, err
	}
	in, err := introspectorFor(descriptor.Dialect)
	if err != nil {
		return nil, err
	}

	model, err := discover(ctx, db, in)
	if err != nil {
		return nil, fmt.Errorf("discover %s schema: %w", descriptor.Dialect, err)
	}
	model.Dialect = descriptor.Dialect
	return model, nil
}

func introspectorFor(dialect sqldb.Dialect) (introspector, error) {
	switch dialect {
	case sqldb.DialectPostgres:
		return postgresIntrospector{}, nil
	case sqldb.DialectMySQL:
		return mysqlIntrospector{}, nil
	case sqldb.DialectSQLite:
		return sqliteIntrospector{}, nil
	case sqldb.DialectDuckDB:
		return duckdbIntrospector{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", sqldb.ErrUnsupportedDialect, dialect)
	}
}

func discover(ctx context.Context, db *sql.DB, in introspector) (*Model, error) {
	names, err := in.tables(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	model := &Model{Tables: make([]Table, 0, len(names))}
	for _, name := range names {
		columns, err := in.columns(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("columns of %q: %w", name, err)
		}
		foreignKeys, err := in.foreignKeys(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("foreign keys of %q: %w", name, err)
		}
		if columns == nil {
			columns = []Column{}
		}
		if foreignKeys == nil {
			foreignKeys = []ForeignKey{}
		}
		model.Tables = append(model.Tables, Table{Name: name, Columns: columns, ForeignKeys: foreignKeys})
	}
	resolveImplicitReferences(model)
	return model, nil
}

// resolveImplicitReferences fills referred columns for foreign keys that
// only name the parent table, which SQLite allows.
func resolveImplicitReferences(model *Model) {
	for ti := range model.Tables {
		for fi, fk := range model.Tables[ti].ForeignKeys {
			if len(fk.ReferredColumns) > 0 && fk.ReferredColumns[0] != "" {
				continue
			}
			parent, ok := model.Table(fk.ReferredTable)
			if !ok {
				continue
			}
			model.Tables[ti].ForeignKeys[fi].ReferredColumns = parent.PrimaryKey()
		}
	}
}

func scanNames(rows *sql.Rows) ([]string, error) {
	defer func() { _ = rows.Close() }()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func scanColumns(rows *sql.Rows) ([]Column, error) {
	defer func() { _ = rows.Close() }()
	var columns []Column
	for rows.Next() {
		var column Column
		if err := rows.Scan(&column.Name, &column.Type, &column.IsPrimaryKey); err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}
	return columns, rows.Err()
}

// foreignKeyGroups collects one row per referencing column into whole
// constraints, preserving the order constraints were first seen in.
type foreignKeyGroups struct {
	byKey map[string]*ForeignKey
	order []string
}

func newForeignKeyGroups() *foreignKeyGroups {
	return &foreignKeyGroups{byKey: map[string]*ForeignKey{}}
}

func (g *foreignKeyGroups) add(key, column, referredTable, referredColumn string) {
	fk, ok := g.byKey[key]
	if !ok {
		fk = &ForeignKey{ReferredTable: referredTable}
		g.byKey[key] = fk
		g.order = append(g.order, key)
	}
	fk.ConstrainedColumns = append(fk.ConstrainedColumns, column)
	fk.ReferredColumns = append(fk.ReferredColumns, referredColumn)
}

func (g *foreignKeyGroups) list() []ForeignKey {
	out := make([]ForeignKey, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, *g.byKey[key])
	}
	return out
}

func scanGroupedForeignKeys(rows *sql.Rows) ([]ForeignKey, error) {
	defer func() { _ = rows.Close() }()
	groups := newForeignKeyGroups()
	for rows.Next() {
		var key, column, referredTable string
		var referredColumn sql.NullString
		if err := rows.Scan(&key, &column, &referredTable, &referredColumn); err != nil {
			return nil, err
		}
		groups.add(key, column, referredTable, referredColumn.String)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return groups.list(), nil
}
