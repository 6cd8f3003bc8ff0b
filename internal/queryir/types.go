package queryir

import "github.com/variantlab/varq/internal/ir"

// Node represents a filter tree node.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in the SQL compiler.
//
// Node types:
//   - And: all children must hold
//   - Or: at least one child must hold
//   - Condition: a single field comparison
//
// A nil Node means "no filter" and compiles to an empty WHERE clause.
type Node interface {
	filterNode() // Marker method - seals interface to this package
}

// And represents a conjunction of filter nodes.
//
// Semantics:
//
//	(<child1> AND <child2> AND ... AND <childN>)
//
// An empty Children slice is legal and compiles to an empty group, which
// SQLite treats as vacuously true.
type And struct {
	Children []Node
}

func (And) filterNode() {}

// Or represents a disjunction of filter nodes.
//
// Semantics:
//
//	(<child1> OR <child2> OR ... OR <childN>)
type Or struct {
	Children []Node
}

func (Or) filterNode() {}

// Table identifies which logical table a condition or projected field
// belongs to.
type Table string

const (
	// TableVariant is the core variant table. One row per variant.
	TableVariant Table = "variant"

	// TableAnnotation is the annotation table. Many rows per variant, so
	// touching it forces SELECT DISTINCT plus a LEFT JOIN.
	TableAnnotation Table = "annotation"

	// TableSample marks per-sample genotype fields. Conditions on it must
	// name the sample they refer to.
	TableSample Table = "sample"
)

// Operator is a comparison operator in a condition leaf.
type Operator string

const (
	OpEq    Operator = "$eq"
	OpNe    Operator = "$ne"
	OpGt    Operator = "$gt"
	OpGte   Operator = "$gte"
	OpLt    Operator = "$lt"
	OpLte   Operator = "$lte"
	OpIn    Operator = "$in"
	OpNotIn Operator = "$nin"
	OpRegex Operator = "$regex"
)

// Operand represents the right-hand side of a condition.
//
// This is a sealed interface - only Literal and WordsetRef implement it.
type Operand interface {
	operandNode() // Marker method - seals interface to this package
}

// Literal is a plain literal operand. For OpIn and OpNotIn the value is
// an ir.List; for every other operator it is a scalar.
type Literal struct {
	Value ir.Value
}

func (Literal) operandNode() {}

// WordsetRef references a named word set stored in the database. Only
// legal under OpIn and OpNotIn; it compiles to a subquery against the
// wordsets table instead of an inline list.
type WordsetRef struct {
	Name string
}

func (WordsetRef) operandNode() {}

// Condition represents a single field comparison leaf.
//
// Semantics:
//
//	<table>.<field> <op> <operand>
//
// Example:
//
//	Condition{
//	  Table:   TableSample,
//	  Sample:  "TUMOR",
//	  Field:   "gt",
//	  Op:      OpEq,
//	  Operand: Literal{Value: ir.Int(1)},
//	}
//
// compiles to:
//
//	`sample_TUMOR`.`gt` = 1
type Condition struct {
	Table   Table
	Sample  string // sample name, set only when Table == TableSample
	Field   string
	Op      Operator
	Operand Operand
}

func (Condition) filterNode() {}

// Flatten returns every condition leaf of the tree in depth-first,
// document order. Logical structure is discarded; join planning only
// needs to know which tables and samples the leaves touch.
func Flatten(n Node) []Condition {
	out := []Condition{}
	flattenInto(n, &out)
	return out
}

func flattenInto(n Node, out *[]Condition) {
	switch node := n.(type) {
	case nil:
	case And:
		for _, child := range node.Children {
			flattenInto(child, out)
		}
	case *And:
		for _, child := range node.Children {
			flattenInto(child, out)
		}
	case Or:
		for _, child := range node.Children {
			flattenInto(child, out)
		}
	case *Or:
		for _, child := range node.Children {
			flattenInto(child, out)
		}
	case Condition:
		*out = append(*out, node)
	case *Condition:
		*out = append(*out, *node)
	}
}
