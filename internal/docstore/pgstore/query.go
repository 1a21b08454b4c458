package pgstore

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fouta-app/functions/internal/docstore"
)

// idColumn compares ids bytewise, the same order memstore uses
const idColumn = `doc_id COLLATE "C"`

var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// condition is one parenthesised WHERE expression with its arguments
type condition struct {
	SQL  string
	Args []interface{}
}

// plan is a docstore.Query translated to SQL fragments
type plan struct {
	Where []condition
	Order []string
	Limit int
}

// translate renders q against the documents table. Field values are
// compared as jsonb, which orders numbers numerically and keeps timestamps
// in TimeLayout order.
func translate(q docstore.Query) (plan, error) {
	if err := q.Validate(); err != nil {
		return plan{}, err
	}

	var p plan
	for _, f := range q.Filters {
		c, err := filterCondition(f)
		if err != nil {
			return plan{}, err
		}
		p.Where = append(p.Where, c)
	}

	for _, o := range q.Orders {
		expr, err := fieldExpr(o.Field)
		if err != nil {
			return plan{}, err
		}
		p.Order = append(p.Order, orderTerm(expr, o.Direction))
	}
	if len(q.Orders) == 0 || q.Orders[len(q.Orders)-1].Field != docstore.DocumentID {
		p.Order = append(p.Order, orderTerm(idColumn, lastDirection(q.Orders)))
	}

	if q.After != nil {
		c, err := cursorCondition(q.Orders, q.After)
		if err != nil {
			return plan{}, err
		}
		p.Where = append(p.Where, c)
	}

	p.Limit = q.LimitN
	return p, nil
}

// fieldExpr returns the jsonb expression for a dotted field path
func fieldExpr(field string) (string, error) {
	if field == docstore.DocumentID {
		return idColumn, nil
	}
	var b strings.Builder
	b.WriteString("data")
	for _, seg := range strings.Split(field, ".") {
		if !segmentPattern.MatchString(seg) {
			return "", fmt.Errorf("unsupported field name %q", field)
		}
		b.WriteString("->'")
		b.WriteString(seg)
		b.WriteString("'")
	}
	return b.String(), nil
}

// placeholder returns the SQL placeholder and argument for a value compared
// against expr
func placeholder(expr string, v interface{}) (string, interface{}, error) {
	if expr == idColumn {
		s, ok := v.(string)
		if !ok {
			return "", nil, fmt.Errorf("document id must be a string, got %T", v)
		}
		return "?", s, nil
	}
	raw, err := json.Marshal(docstore.Normalize(v))
	if err != nil {
		return "", nil, fmt.Errorf("encode filter value: %w", err)
	}
	return "?::jsonb", string(raw), nil
}

func filterCondition(f docstore.Filter) (condition, error) {
	expr, err := fieldExpr(f.Field)
	if err != nil {
		return condition{}, err
	}
	if f.Value == nil {
		return condition{SQL: fmt.Sprintf("(%s IS NULL OR %s = 'null'::jsonb)", expr, expr)}, nil
	}

	op := string(f.Op)
	if f.Op == docstore.OpEqual {
		op = "="
	}
	ph, arg, err := placeholder(expr, f.Value)
	if err != nil {
		return condition{}, err
	}
	if f.Op == docstore.OpEqual || expr == idColumn {
		return condition{SQL: fmt.Sprintf("(%s %s %s)", expr, op, ph), Args: []interface{}{arg}}, nil
	}
	// jsonb orders across types (null < string < number), so a range only
	// matches values of the bound's own type
	return condition{
		SQL:  fmt.Sprintf("(%s %s %s AND jsonb_typeof(%s) = jsonb_typeof(%s))", expr, op, ph, expr, ph),
		Args: []interface{}{arg, arg},
	}, nil
}

// cursorCondition selects rows strictly after the cursor in the sort order
// (k1, ..., kn, id): (k1 > v1) OR (k1 = v1 AND k2 > v2) ... OR (all equal
// AND id > cursor id).
func cursorCondition(orders []docstore.Order, after *docstore.Document) (condition, error) {
	type key struct {
		expr string
		ph   string
		arg  interface{}
		dir  docstore.Direction
	}

	keys := make([]key, 0, len(orders)+1)
	for _, o := range orders {
		expr, err := fieldExpr(o.Field)
		if err != nil {
			return condition{}, err
		}
		v, _ := after.Value(o.Field)
		ph, arg, err := placeholder(expr, v)
		if err != nil {
			return condition{}, err
		}
		keys = append(keys, key{expr: expr, ph: ph, arg: arg, dir: o.Direction})
	}
	if len(orders) == 0 || orders[len(orders)-1].Field != docstore.DocumentID {
		keys = append(keys, key{expr: idColumn, ph: "?", arg: after.ID, dir: lastDirection(orders)})
	}

	var (
		terms []string
		args  []interface{}
	)
	for i, k := range keys {
		var parts []string
		for _, prev := range keys[:i] {
			parts = append(parts, fmt.Sprintf("%s = %s", prev.expr, prev.ph))
			args = append(args, prev.arg)
		}
		cmp := ">"
		if k.dir == docstore.Desc {
			cmp = "<"
		}
		parts = append(parts, fmt.Sprintf("%s %s %s", k.expr, cmp, k.ph))
		args = append(args, k.arg)
		terms = append(terms, "("+strings.Join(parts, " AND ")+")")
	}
	return condition{SQL: "(" + strings.Join(terms, " OR ") + ")", Args: args}, nil
}

// orderTerm sorts nulls the way memstore does: first when ascending
func orderTerm(expr string, dir docstore.Direction) string {
	if dir == docstore.Desc {
		return expr + " DESC NULLS LAST"
	}
	return expr + " ASC NULLS FIRST"
}

func lastDirection(orders []docstore.Order) docstore.Direction {
	if len(orders) == 0 {
		return docstore.Asc
	}
	return orders[len(orders)-1].Direction
}
