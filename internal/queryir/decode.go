package queryir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/variantlab/varq/internal/ir"
)

// ParseError reports a malformed filter or projection document. Path
// locates the offending node, e.g. "$and[1].gt".
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return "filter: " + e.Message
	}
	return fmt.Sprintf("filter %s: %s", e.Path, e.Message)
}

func parseErrorf(path, format string, args ...any) error {
	return &ParseError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Reserved keys of a condition leaf. Everything else in a leaf map is
// the attribute the condition tests.
const (
	keyTable   = "$table"
	keyName    = "$name"
	keyAnd     = "$and"
	keyOr      = "$or"
	keyWordset = "$wordset"
)

// operators maps the document spelling of each operator to its Operator.
var operators = map[string]Operator{
	"$eq":    OpEq,
	"$ne":    OpNe,
	"$gt":    OpGt,
	"$gte":   OpGte,
	"$lt":    OpLt,
	"$lte":   OpLte,
	"$in":    OpIn,
	"$nin":   OpNotIn,
	"$regex": OpRegex,
}

// DecodeFilter parses a JSON filter document into a filter tree. An
// empty document ({} or null) yields a nil Node, meaning no filter.
func DecodeFilter(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return FilterFromGo(raw)
}

// FilterFromGo builds a filter tree from an already-decoded document
// (map[string]any as produced by the json and yaml decoders).
func FilterFromGo(v any) (Node, error) {
	return parseNode("", v)
}

func parseNode(path string, v any) (Node, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, parseErrorf(path, "expected mapping, got %T", v)
	}
	if len(m) == 0 {
		return nil, nil
	}

	_, hasAnd := m[keyAnd]
	_, hasOr := m[keyOr]
	if hasAnd || hasOr {
		return parseBoolean(path, m)
	}
	return parseLeaf(path, m)
}

func parseBoolean(path string, m map[string]any) (Node, error) {
	if len(m) != 1 {
		return nil, parseErrorf(path, "boolean node must have a single %s or %s key, got %d keys", keyAnd, keyOr, len(m))
	}

	key := keyAnd
	raw, ok := m[keyAnd]
	if !ok {
		key = keyOr
		raw = m[keyOr]
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, parseErrorf(joinPath(path, key), "expected a list of nodes, got %T", raw)
	}

	children := make([]Node, 0, len(items))
	for i, item := range items {
		child, err := parseNode(fmt.Sprintf("%s[%d]", joinPath(path, key), i), item)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}

	if key == keyAnd {
		return And{Children: children}, nil
	}
	return Or{Children: children}, nil
}

func parseLeaf(path string, m map[string]any) (Node, error) {
	cond := Condition{Table: TableVariant}

	if raw, ok := m[keyTable]; ok {
		name, ok := raw.(string)
		if !ok {
			return nil, parseErrorf(joinPath(path, keyTable), "expected string, got %T", raw)
		}
		switch Table(name) {
		case TableVariant, TableAnnotation, TableSample:
			cond.Table = Table(name)
		default:
			return nil, parseErrorf(joinPath(path, keyTable), "unknown table %q", name)
		}
	}

	if raw, ok := m[keyName]; ok {
		name, ok := raw.(string)
		if !ok {
			return nil, parseErrorf(joinPath(path, keyName), "expected string, got %T", raw)
		}
		cond.Sample = name
	}

	if cond.Table == TableSample && cond.Sample == "" {
		return nil, parseErrorf(path, "sample condition requires %s", keyName)
	}
	if cond.Table != TableSample && cond.Sample != "" {
		return nil, parseErrorf(joinPath(path, keyName), "%s is only valid when %s is %q", keyName, keyTable, TableSample)
	}

	// The remaining keys name the attribute under test. Exactly one is
	// allowed; conjunctions are spelled with an explicit $and.
	attrs := make([]string, 0, 1)
	for k := range m {
		if k == keyTable || k == keyName {
			continue
		}
		if strings.HasPrefix(k, "$") {
			return nil, parseErrorf(joinPath(path, k), "unexpected reserved key in condition")
		}
		attrs = append(attrs, k)
	}
	if len(attrs) != 1 {
		sort.Strings(attrs)
		return nil, parseErrorf(path, "condition must test exactly one field, got %d %v", len(attrs), attrs)
	}
	cond.Field = attrs[0]
	leafPath := joinPath(path, cond.Field)

	op, operand, err := parseComparison(leafPath, m[cond.Field])
	if err != nil {
		return nil, err
	}
	cond.Op = op
	cond.Operand = operand

	if err := validateCondition(leafPath, cond); err != nil {
		return nil, err
	}
	return cond, nil
}

// parseComparison decodes the value side of a leaf. A bare literal is
// shorthand for {"$eq": value}.
func parseComparison(path string, v any) (Operator, Operand, error) {
	m, ok := v.(map[string]any)
	if !ok {
		val, err := ir.FromGo(v)
		if err != nil {
			return "", nil, parseErrorf(path, "%v", err)
		}
		return OpEq, Literal{Value: val}, nil
	}

	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", nil, parseErrorf(path, "operator map must have a single key, got %v", keys)
	}

	var rawOp string
	var rawOperand any
	for k, val := range m {
		rawOp, rawOperand = k, val
	}

	op, ok := operators[rawOp]
	if !ok {
		return "", nil, parseErrorf(path, "unknown operator %q", rawOp)
	}

	operand, err := parseOperand(joinPath(path, rawOp), op, rawOperand)
	if err != nil {
		return "", nil, err
	}
	return op, operand, nil
}

func parseOperand(path string, op Operator, v any) (Operand, error) {
	if m, ok := v.(map[string]any); ok {
		raw, ok := m[keyWordset]
		if !ok || len(m) != 1 {
			return nil, parseErrorf(path, "expected a literal or {%q: name}", keyWordset)
		}
		name, ok := raw.(string)
		if !ok {
			return nil, parseErrorf(joinPath(path, keyWordset), "expected string, got %T", raw)
		}
		return WordsetRef{Name: name}, nil
	}

	val, err := ir.FromGo(v)
	if err != nil {
		return nil, parseErrorf(path, "%v", err)
	}
	return Literal{Value: val}, nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
