// Package docstore expresses range-scan document queries (equality and range
// filters, ordering, StartAfter cursors and limits) on top of gorm. Tables
// partitioned by a parent key are scanned either within one partition or as
// a collection group.
package docstore

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

type Op string

const (
	OpEq  Op = "=="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpGt  Op = ">"
	OpGte Op = ">="
)

var sqlOps = map[Op]string{
	OpEq:  "=",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
}

var (
	ErrUnknownField   = errors.New("docstore: unknown field")
	ErrUnsupportedOp  = errors.New("docstore: unsupported operator")
	ErrCursorMismatch = errors.New("docstore: cursor does not match query ordering")
)

// Filter is a single predicate on a document field.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order sorts by one field.
type Order struct {
	Field string
	Desc  bool
}

// Cursor holds one value per Order field of the query it resumes.
type Cursor []any

// Query is an immutable description of a range scan.
type Query struct {
	Filters    []Filter
	Orders     []Order
	StartAfter Cursor
	Limit      int
}

// Schema maps document field names to table columns. Only mapped fields can
// be filtered or ordered on.
type Schema map[string]string

func (s Schema) column(field string) (string, error) {
	col, ok := s[field]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownField, field)
	}
	return col, nil
}

// Where returns a copy of q with an extra filter.
func (q Query) Where(field string, op Op, value any) Query {
	out := q.clone()
	out.Filters = append(out.Filters, Filter{Field: field, Op: op, Value: value})
	return out
}

// OrderBy returns a copy of q with an extra sort key.
func (q Query) OrderBy(field string, desc bool) Query {
	out := q.clone()
	out.Orders = append(out.Orders, Order{Field: field, Desc: desc})
	return out
}

// After returns a copy of q that resumes strictly after c.
func (q Query) After(c Cursor) Query {
	out := q.clone()
	out.StartAfter = c
	return out
}

// WithLimit returns a copy of q capped at n rows; n <= 0 means unbounded.
func (q Query) WithLimit(n int) Query {
	out := q.clone()
	out.Limit = n
	return out
}

func (q Query) clone() Query {
	out := Query{Limit: q.Limit}
	out.Filters = append([]Filter(nil), q.Filters...)
	out.Orders = append([]Order(nil), q.Orders...)
	out.StartAfter = append(Cursor(nil), q.StartAfter...)
	return out
}

// Apply translates q onto tx. The StartAfter cursor becomes a keyset
// predicate over the ordering columns, honoring each column's direction.
func (q Query) Apply(tx *gorm.DB, schema Schema) (*gorm.DB, error) {
	for _, f := range q.Filters {
		col, err := schema.column(f.Field)
		if err != nil {
			return nil, err
		}
		op, ok := sqlOps[f.Op]
		if !ok {
			return nil, fmt.Errorf("%w %q", ErrUnsupportedOp, f.Op)
		}
		tx = tx.Where(fmt.Sprintf("%s %s ?", col, op), f.Value)
	}

	cols := make([]string, len(q.Orders))
	for i, o := range q.Orders {
		col, err := schema.column(o.Field)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}

	if len(q.StartAfter) > 0 {
		if len(q.StartAfter) != len(q.Orders) {
			return nil, ErrCursorMismatch
		}
		clause, args := keyset(cols, q.Orders, q.StartAfter)
		tx = tx.Where(clause, args...)
	}

	for i, o := range q.Orders {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		tx = tx.Order(cols[i] + " " + dir)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx, nil
}

// keyset builds (c1 > v1) OR (c1 = v1 AND c2 > v2) OR ... with < for
// descending columns.
func keyset(cols []string, orders []Order, values Cursor) (string, []any) {
	parts := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)*(len(cols)+1)/2)
	for i := range cols {
		conds := make([]string, 0, i+1)
		for j := 0; j < i; j++ {
			conds = append(conds, cols[j]+" = ?")
			args = append(args, values[j])
		}
		cmp := ">"
		if orders[i].Desc {
			cmp = "<"
		}
		conds = append(conds, cols[i]+" "+cmp+" ?")
		args = append(args, values[i])
		parts = append(parts, "("+strings.Join(conds, " AND ")+")")
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// CursorOf extracts a cursor for q's ordering from a row scanned into a map
// keyed by column name.
func (q Query) CursorOf(row map[string]any, schema Schema) (Cursor, error) {
	c := make(Cursor, len(q.Orders))
	for i, o := range q.Orders {
		col, err := schema.column(o.Field)
		if err != nil {
			return nil, err
		}
		v, ok := row[col]
		if !ok {
			return nil, fmt.Errorf("%w: row missing %q", ErrCursorMismatch, col)
		}
		c[i] = v
	}
	return c, nil
}

// Columns returns the ordering columns of q.
func (q Query) Columns(schema Schema) ([]string, error) {
	cols := make([]string, len(q.Orders))
	for i, o := range q.Orders {
		col, err := schema.column(o.Field)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}
