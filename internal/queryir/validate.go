package queryir

import (
	"fmt"
	"strings"

	"github.com/variantlab/varq/internal/ir"
)

// Validate checks a filter tree for shape errors before compilation.
//
// Trees built by DecodeFilter are already validated; this is the
// entry point for programmatically constructed trees. The checks mirror
// what the decoder enforces:
//   - known table and operator on every leaf
//   - sample leaves carry a sample name, others do not
//   - wordset operands only under $in and $nin
//   - list operands only under $in and $nin, scalars elsewhere
//   - null operands only under $eq and $ne
//   - $regex operands are strings
//
// Validate is a pure function with no side effects.
func Validate(n Node) error {
	return validateNode("", n)
}

// ValidateQuery checks a full query document: the filter tree plus the
// projection, grouping, and ordering field lists, and the paging options.
func ValidateQuery(q Query) error {
	if err := ValidateProjection(q.Fields); err != nil {
		return err
	}
	if err := ValidateProjection(q.GroupBy); err != nil {
		return err
	}
	if err := ValidateProjection(q.OrderBy); err != nil {
		return err
	}
	if strings.Contains(q.Source, "'") {
		return parseErrorf("source", "invalid selection name %q", q.Source)
	}
	if q.Offset < 0 {
		return parseErrorf("offset", "negative offset %d", q.Offset)
	}
	return Validate(q.Filters)
}

func validateNode(path string, n Node) error {
	switch node := n.(type) {
	case nil:
		return nil
	case And:
		return validateChildren(joinPath(path, keyAnd), node.Children)
	case *And:
		return validateChildren(joinPath(path, keyAnd), node.Children)
	case Or:
		return validateChildren(joinPath(path, keyOr), node.Children)
	case *Or:
		return validateChildren(joinPath(path, keyOr), node.Children)
	case Condition:
		return validateCondition(leafPath(path, node), node)
	case *Condition:
		return validateCondition(leafPath(path, *node), *node)
	default:
		return parseErrorf(path, "unknown node type %T", n)
	}
}

func validateChildren(path string, children []Node) error {
	for i, child := range children {
		if child == nil {
			return parseErrorf(fmt.Sprintf("%s[%d]", path, i), "nil child node")
		}
		if err := validateNode(fmt.Sprintf("%s[%d]", path, i), child); err != nil {
			return err
		}
	}
	return nil
}

func leafPath(path string, cond Condition) string {
	if cond.Field != "" {
		return joinPath(path, cond.Field)
	}
	return path
}

func validateCondition(path string, cond Condition) error {
	switch cond.Table {
	case TableVariant, TableAnnotation:
		if cond.Sample != "" {
			return parseErrorf(path, "%s is only valid when %s is %q", keyName, keyTable, TableSample)
		}
	case TableSample:
		if cond.Sample == "" {
			return parseErrorf(path, "sample condition requires %s", keyName)
		}
		if strings.ContainsAny(cond.Sample, "`'") {
			return parseErrorf(path, "invalid sample name %q", cond.Sample)
		}
	default:
		return parseErrorf(path, "unknown table %q", cond.Table)
	}

	if cond.Field == "" {
		return parseErrorf(path, "condition has no field")
	}
	if strings.Contains(cond.Field, "`") {
		return parseErrorf(path, "invalid field name %q", cond.Field)
	}

	if !knownOperator(cond.Op) {
		return parseErrorf(path, "unknown operator %q", string(cond.Op))
	}

	return validateOperand(path, cond.Op, cond.Operand)
}

func knownOperator(op Operator) bool {
	for _, known := range operators {
		if op == known {
			return true
		}
	}
	return false
}

func validateOperand(path string, op Operator, operand Operand) error {
	switch rhs := operand.(type) {
	case nil:
		return parseErrorf(path, "condition has no operand")

	case WordsetRef:
		if op != OpIn && op != OpNotIn {
			return parseErrorf(path, "%s operand is only valid under $in and $nin", keyWordset)
		}
		if rhs.Name == "" {
			return parseErrorf(path, "empty word set name")
		}
		if strings.Contains(rhs.Name, "'") {
			return parseErrorf(path, "invalid word set name %q", rhs.Name)
		}
		return nil

	case Literal:
		return validateLiteral(path, op, rhs.Value)

	default:
		return parseErrorf(path, "unknown operand type %T", operand)
	}
}

func validateLiteral(path string, op Operator, v ir.Value) error {
	if v == nil {
		return parseErrorf(path, "condition has no operand")
	}

	switch op {
	case OpIn, OpNotIn:
		lst, ok := v.(ir.List)
		if !ok {
			return parseErrorf(path, "operator %s requires a list operand, got %T", op, v)
		}
		for i, elem := range lst {
			switch elem.(type) {
			case ir.Str, ir.Int, ir.Float, ir.Bool, ir.Null:
			default:
				return parseErrorf(path, "list element %d must be a scalar, got %T", i, elem)
			}
		}
		return nil

	case OpRegex:
		if _, ok := v.(ir.Str); !ok {
			return parseErrorf(path, "operator %s requires a string operand, got %T", op, v)
		}
		return nil

	default:
		switch v.(type) {
		case ir.Str, ir.Int, ir.Float, ir.Bool:
			return nil
		case ir.Null:
			if op == OpEq || op == OpNe {
				return nil
			}
			return parseErrorf(path, "null operand is only valid under $eq and $ne")
		default:
			return parseErrorf(path, "operator %s requires a scalar operand, got %T", op, v)
		}
	}
}
