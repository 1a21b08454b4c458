package docstore

import (
	"fmt"
)

// DocumentID orders or filters by the document id instead of a field
const DocumentID = "__name__"

// Op is a filter comparison operator
type Op string

// Supported operators
const (
	OpEqual        Op = "=="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
)

// Direction is a sort direction
type Direction int

const (
	Asc Direction = iota
	Desc
)

// Filter restricts a query to documents whose field compares to Value.
// An OpEqual filter with a nil Value matches absent and null fields.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Order is one sort key
type Order struct {
	Field     string
	Direction Direction
}

// Query is an immutable collection query; builder methods return copies
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	LimitN     int
	After      *Document
}

// Collection starts a query over a collection path
func Collection(path string) Query {
	return Query{Collection: path}
}

// Where adds a filter
func (q Query) Where(field string, op Op, value interface{}) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy adds a sort key. Documents with equal keys are ordered by id.
func (q Query) OrderBy(field string, dir Direction) Query {
	q.Orders = append(append([]Order(nil), q.Orders...), Order{Field: field, Direction: dir})
	return q
}

// Limit caps the number of returned documents; n <= 0 means no limit
func (q Query) Limit(n int) Query {
	q.LimitN = n
	return q
}

// StartAfter resumes the query strictly after doc in the query order
func (q Query) StartAfter(doc *Document) Query {
	q.After = doc
	return q
}

// Validate checks operator names and that a cursor carries every order field
func (q Query) Validate() error {
	if q.Collection == "" {
		return fmt.Errorf("%w: empty collection", ErrInvalidPath)
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		default:
			return fmt.Errorf("unsupported operator %q on %s", f.Op, f.Field)
		}
		if f.Value == nil && f.Op != OpEqual {
			return fmt.Errorf("null value only supported with == on %s", f.Field)
		}
	}
	if q.After != nil {
		for _, o := range q.Orders {
			if !q.After.Has(o.Field) {
				return fmt.Errorf("cursor document %s has no value for order field %s", q.After.Path, o.Field)
			}
		}
	}
	return nil
}
