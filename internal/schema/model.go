package schema

import "github.com/hybridqa/hybridqa/internal/sqldb"

// Model is a point-in-time snapshot of the tables in the connected
// database. Callers treat it as read-only once discovery returns.
type Model struct {
	Dialect sqldb.Dialect `json:"-"`
	Tables  []Table       `json:"tables"`
}

type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
}

type Column struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

type ForeignKey struct {
	ConstrainedColumns []string `json:"constrained_columns"`
	ReferredTable      string   `json:"referred_table"`
	ReferredColumns    []string `json:"referred_columns"`
}

func (m *Model) Empty() bool {
	return m == nil || len(m.Tables) == 0
}

func (m *Model) Table(name string) (Table, bool) {
	if m == nil {
		return Table{}, false
	}
	for _, table := range m.Tables {
		if table.Name == name {
			return table, true
		}
	}
	return Table{}, false
}

func (t Table) PrimaryKey() []string {
	var names []string
	for _, column := range t.Columns {
		if column.IsPrimaryKey {
			names = append(names, column.Name)
		}
	}
	return names
}
