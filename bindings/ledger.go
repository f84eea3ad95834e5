// Package bindings keeps positional parameter values grouped by the clause
// that produced them, so they can be flattened in the same order the
// placeholders appear in the compiled SQL.
package bindings

import "fmt"

// Bucket identifies the clause a bound value belongs to.
type Bucket int

const (
	UnionExpressions Bucket = iota // WITH clause wrapping an outer union
	Expressions                    // WITH clause of the statement itself
	Select
	From
	Join
	Where
	Groups
	Having
	Order
	Union
	UnionOrder
	Values // SET / VALUES of write statements
	numBuckets
)

var bucketNames = [...]string{
	UnionExpressions: "unionExpressions",
	Expressions:      "expressions",
	Select:           "select",
	From:             "from",
	Join:             "join",
	Where:            "where",
	Groups:           "groupBy",
	Having:           "having",
	Order:            "order",
	Union:            "union",
	UnionOrder:       "unionOrder",
	Values:           "values",
}

// String returns the bucket name.
func (b Bucket) String() string {
	if b < 0 || b >= numBuckets {
		return fmt.Sprintf("Bucket(%d)", int(b))
	}
	return bucketNames[b]
}

// SelectOrder is the flattening order for SELECT statements. Both WITH
// buckets lead because their text always precedes the statement body.
var SelectOrder = []Bucket{
	UnionExpressions, Expressions,
	Select, From, Join, Where, Groups, Having, Order,
	Union, UnionOrder,
}

// Ledger is an ordered set of buckets of bound values.
// The zero value is ready to use.
type Ledger struct {
	buckets [numBuckets][]any
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// Add appends vals to bucket b, preserving call order.
func (l *Ledger) Add(b Bucket, vals ...any) {
	if len(vals) == 0 {
		return
	}
	l.buckets[b] = append(l.buckets[b], vals...)
}

// Get returns a copy of the values held in bucket b.
func (l *Ledger) Get(b Bucket) []any {
	if l == nil || len(l.buckets[b]) == 0 {
		return nil
	}
	out := make([]any, len(l.buckets[b]))
	copy(out, l.buckets[b])
	return out
}

// Len returns the total number of values across all buckets.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, vals := range l.buckets {
		n += len(vals)
	}
	return n
}

// Clear empties the given buckets, or every bucket when none are named.
func (l *Ledger) Clear(bs ...Bucket) {
	if len(bs) == 0 {
		l.buckets = [numBuckets][]any{}
		return
	}
	for _, b := range bs {
		l.buckets[b] = nil
	}
}

// Clone returns a deep copy of the ledger. Cloning a nil ledger yields an
// empty one.
func (l *Ledger) Clone() *Ledger {
	c := New()
	if l == nil {
		return c
	}
	for b, vals := range l.buckets {
		if len(vals) > 0 {
			c.buckets[b] = append([]any(nil), vals...)
		}
	}
	return c
}

// Flatten concatenates the named buckets in the given order.
func (l *Ledger) Flatten(order ...Bucket) []any {
	if l == nil {
		return nil
	}
	var out []any
	for _, b := range order {
		out = append(out, l.buckets[b]...)
	}
	return out
}

// PrepareForUpdate returns the CTE values followed by the statement's own
// values. The statement's own values are expected in placeholder order.
func PrepareForUpdate(l *Ledger, own []any) []any {
	return prependExpressions(l, own)
}

// PrepareForDelete is PrepareForUpdate for DELETE statements.
func PrepareForDelete(l *Ledger, own []any) []any {
	return prependExpressions(l, own)
}

// PrepareForInsertUsing is PrepareForUpdate for INSERT ... SELECT statements,
// where own holds the values of the resolved SELECT.
func PrepareForInsertUsing(l *Ledger, own []any) []any {
	return prependExpressions(l, own)
}

func prependExpressions(l *Ledger, own []any) []any {
	out := l.Get(Expressions)
	return append(out, own...)
}
