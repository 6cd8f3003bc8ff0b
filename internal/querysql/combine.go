package querysql

import "fmt"

// SetOp is a set-algebra operation over two variant identity sets.
type SetOp string

const (
	SetUnion     SetOp = "union"
	SetIntersect SetOp = "intersect"
	SetExcept    SetOp = "except"
)

// Combine produces a single query whose result is the set combination
// of the variant identities matched by two compiled queries. The output
// is itself valid input for selection materialization.
//
// Both operands are wrapped as subqueries and reduced to their identity
// column, so they may carry different projections, joins, or paging.
func Combine(op SetOp, a, b string) (string, error) {
	switch op {
	case SetUnion:
		return Union(a, b), nil
	case SetIntersect:
		return Intersect(a, b), nil
	case SetExcept:
		return Except(a, b), nil
	default:
		return "", fmt.Errorf("unsupported set operation: %q", op)
	}
}

// Union combines two compiled queries into their identity-set union.
func Union(a, b string) string {
	return combine("UNION", a, b)
}

// Intersect combines two compiled queries into their identity-set
// intersection.
func Intersect(a, b string) string {
	return combine("INTERSECT", a, b)
}

// Except combines two compiled queries into the identities matched by
// the first query but not the second.
func Except(a, b string) string {
	return combine("EXCEPT", a, b)
}

func combine(keyword, a, b string) string {
	return "SELECT id FROM (" + a + ") " + keyword + " SELECT id FROM (" + b + ")"
}
