package securedb

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ColumnType tells the scanner which Go type a column decodes into.
type ColumnType int

const (
	TypeUUID ColumnType = iota
	TypeString
	TypeTime
)

// Column is a physical column of a table.
type Column struct {
	Name string
	Type ColumnType
}

// Table describes a physical table together with the logical fields
// predicates may reference on it, both scope constraints and caller list
// filters. Fields maps a logical field name to the column that carries it; a
// scope predicate on a field the table does not declare is ignored for that
// table, because the entity simply does not carry the attribute the predicate
// constrains, while an undeclared caller filter is an error.
type Table struct {
	Name    string
	PK      string
	Columns []Column
	Fields  map[string]string
}

// FieldColumn resolves a logical field to its column, reporting whether the
// table declares the field at all.
func (t Table) FieldColumn(field string) (string, bool) {
	col, ok := t.Fields[field]
	return col, ok
}

func (t Table) columnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}

	return names
}

// Row is a decoded row keyed by column name. UUID columns decode to
// uuid.UUID, time columns to time.Time, everything else to string.
type Row map[string]any

// UUID returns the named column as a uuid.UUID, or uuid.Nil when absent.
func (r Row) UUID(col string) uuid.UUID {
	v, _ := r[col].(uuid.UUID)
	return v
}

// String returns the named column as a string, or "" when absent.
func (r Row) String(col string) string {
	v, _ := r[col].(string)
	return v
}

// Time returns the named column as a time.Time, or the zero time when absent.
func (r Row) Time(col string) time.Time {
	v, _ := r[col].(time.Time)
	return v
}

func (t Table) scanDest() []any {
	dest := make([]any, len(t.Columns))
	for i, col := range t.Columns {
		switch col.Type {
		case TypeUUID:
			dest[i] = new(uuid.UUID)
		case TypeTime:
			dest[i] = new(time.Time)
		default:
			dest[i] = new(string)
		}
	}

	return dest
}

func (t Table) rowFromDest(dest []any) Row {
	row := make(Row, len(t.Columns))

	for i, col := range t.Columns {
		switch v := dest[i].(type) {
		case *uuid.UUID:
			row[col.Name] = *v
		case *time.Time:
			row[col.Name] = *v
		case *string:
			row[col.Name] = *v
		}
	}

	return row
}

func (t Table) validateColumns(values map[string]any) error {
	known := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		known[col.Name] = true
	}

	for name := range values {
		if !known[name] {
			return fmt.Errorf("securedb: table %s has no column %s", t.Name, name)
		}
	}

	return nil
}
