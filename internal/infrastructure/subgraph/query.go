// Package subgraph implements the read interface over the protocol's
// GraphQL indexer: query descriptors, a POST client and exhaustive
// pagination over fixed-size pages.
package subgraph

import (
	"fmt"
	"sort"
	"strings"
)

// WhereOp is a filter operator supported by the indexer.
type WhereOp string

const (
	OpEq    WhereOp = ""       // exact match
	OpIn    WhereOp = "in"     // set membership
	OpNotIn WhereOp = "not_in" // negated set membership
	OpGte   WhereOp = "gte"    // greater or equal
)

// Where is a single filter predicate.
type Where struct {
	Key   string
	Op    WhereOp
	Value interface{} // string, int64, or []string for set operators
}

// Query describes one entity query. First and Skip control a single page;
// the exhaustive fetcher manages them itself.
type Query struct {
	Entity         string // singular entity name, e.g. "project"
	Keys           []string
	NestedKeys     map[string][]string // nested entity -> its keys
	Where          []Where
	OrderBy        string
	OrderDirection string // "asc" or "desc"
	First          int
	Skip           int
}

// collection is the plural field name the subgraph exposes for an entity.
func (q *Query) collection() string {
	return q.Entity + "s"
}

// build renders the query descriptor as GraphQL text.
func (q *Query) build() string {
	var b strings.Builder
	b.WriteString("{ ")
	b.WriteString(q.collection())

	args := make([]string, 0, 5)
	if q.First > 0 {
		args = append(args, fmt.Sprintf("first: %d", q.First))
	}
	if q.Skip > 0 {
		args = append(args, fmt.Sprintf("skip: %d", q.Skip))
	}
	if q.OrderBy != "" {
		args = append(args, fmt.Sprintf("orderBy: %s", q.OrderBy))
	}
	if q.OrderDirection != "" {
		args = append(args, fmt.Sprintf("orderDirection: %s", q.OrderDirection))
	}
	if len(q.Where) > 0 {
		clauses := make([]string, 0, len(q.Where))
		for _, w := range q.Where {
			clauses = append(clauses, w.render())
		}
		args = append(args, fmt.Sprintf("where: { %s }", strings.Join(clauses, ", ")))
	}
	if len(args) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(args, ", "))
		b.WriteString(")")
	}

	b.WriteString(" { ")
	fields := make([]string, 0, len(q.Keys)+len(q.NestedKeys))
	fields = append(fields, q.Keys...)

	nested := make([]string, 0, len(q.NestedKeys))
	for entity := range q.NestedKeys {
		nested = append(nested, entity)
	}
	sort.Strings(nested)
	for _, entity := range nested {
		fields = append(fields, fmt.Sprintf("%s { %s }", entity, strings.Join(q.NestedKeys[entity], " ")))
	}
	b.WriteString(strings.Join(fields, " "))
	b.WriteString(" } }")
	return b.String()
}

func (w Where) render() string {
	key := w.Key
	if w.Op != OpEq {
		key = fmt.Sprintf("%s_%s", w.Key, w.Op)
	}
	return fmt.Sprintf("%s: %s", key, renderValue(w.Value))
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return fmt.Sprintf("%q", val)
	case []string:
		quoted := make([]string, len(val))
		for i, s := range val {
			quoted[i] = fmt.Sprintf("%q", s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case int:
		return fmt.Sprintf("%d", val)
	case int64:
		return fmt.Sprintf("%d", val)
	case uint64:
		return fmt.Sprintf("%d", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
