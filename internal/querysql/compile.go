// Package querysql compiles query documents into SQLite SQL text.
//
// Compilation is deliberately textual and deterministic: equal queries
// produce byte-identical SQL. Selection materialization stores and
// re-derives result sets from this text, and the golden tests compare
// it verbatim, so the exact spacing and literal formatting here is a
// contract, not a style choice.
package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/variantlab/varq/internal/ir"
	"github.com/variantlab/varq/internal/queryir"
)

// Compiler compiles query documents to SQL for SQLite.
//
// Sample names appearing in a query resolve to numeric sample ids at
// compile time, so the emitted join predicates are self-contained text.
type Compiler struct {
	// SampleIDs maps sample names to their ids in the samples table.
	// Must cover every sample the query touches.
	SampleIDs map[string]int64
}

// NewCompiler creates a Compiler with an empty sample map.
func NewCompiler() *Compiler {
	return &Compiler{SampleIDs: make(map[string]int64)}
}

// UnknownSampleError reports a query that references a sample name
// missing from the compiler's name to id map.
type UnknownSampleError struct {
	Name string
}

func (e *UnknownSampleError) Error() string {
	return fmt.Sprintf("unknown sample %q", e.Name)
}

// CompileQuery assembles the full SELECT for a query document.
//
// Clause order is fixed: projection, annotation join, sample joins,
// selection join, WHERE, GROUP BY, ORDER BY, LIMIT/OFFSET. The join
// order is a hard contract since later predicates may reference earlier
// aliases. A Limit of zero or less omits the LIMIT clause entirely.
func (c *Compiler) CompileQuery(q queryir.Query) (string, error) {
	if err := queryir.ValidateQuery(q); err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("SELECT DISTINCT ")

	cols := append([]string{columnRef(variantTable, "id")}, CompileFields(q.Fields)...)
	b.WriteString(strings.Join(cols, ","))

	b.WriteString(" FROM ")
	b.WriteString(variantTable)

	if AnnotationJoinRequired(q.Fields, q.Filters) {
		b.WriteString(" LEFT JOIN annotation ON annotation.variant_id = variant.id")
	}

	for _, name := range SampleJoinsRequired(q.Fields, q.Filters) {
		id, ok := c.SampleIDs[name]
		if !ok {
			return "", &UnknownSampleError{Name: name}
		}
		alias := "`" + sampleTable(name) + "`"
		fmt.Fprintf(&b, " INNER JOIN %s ON %s.variant_id = variant.id AND %s.sample_id = %d",
			alias, alias, alias, id)
	}

	if q.Source != "" && q.Source != queryir.DefaultSource {
		fmt.Fprintf(&b, " INNER JOIN selection_has_variant sv ON sv.variant_id = variant.id"+
			" INNER JOIN selections s ON s.id = sv.selection_id AND s.name = '%s'", q.Source)
	}

	where, err := CompileFilters(q.Filters)
	if err != nil {
		return "", fmt.Errorf("compile filters: %w", err)
	}
	if where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(where)
	}

	if !q.GroupBy.IsEmpty() {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(CompileFields(q.GroupBy), ","))
	}

	if !q.OrderBy.IsEmpty() {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(CompileFields(q.OrderBy), ","))
		if q.OrderDesc {
			b.WriteString(" DESC")
		}
	}

	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", q.Limit, q.Offset)
	}

	return b.String(), nil
}

// CompileFields renders the projection as an ordered column list:
// variant fields first, then annotation fields, then sample fields in
// projection order. The identity column is not included; CompileQuery
// prepends it.
func CompileFields(p queryir.Projection) []string {
	cols := []string{}
	for _, f := range p.Variant {
		cols = append(cols, columnRef(variantTable, f))
	}
	for _, f := range p.Annotation {
		cols = append(cols, columnRef(annotationTable, f))
	}
	for _, s := range p.Samples {
		for _, f := range s.Fields {
			cols = append(cols, columnRef(sampleTable(s.Name), f))
		}
	}
	return cols
}

// AnnotationJoinRequired reports whether the query touches the
// annotation table, either through the projection or through a filter
// leaf.
func AnnotationJoinRequired(fields queryir.Projection, tree queryir.Node) bool {
	if len(fields.Annotation) > 0 {
		return true
	}
	for _, leaf := range queryir.Flatten(tree) {
		if leaf.Table == queryir.TableAnnotation {
			return true
		}
	}
	return false
}

// SampleJoinsRequired returns the sample names the query needs a
// genotype join for: every sample in the projection, in projection
// order, followed by every sample first referenced by a filter leaf,
// in leaf order. Each name appears exactly once.
func SampleJoinsRequired(fields queryir.Projection, tree queryir.Node) []string {
	names := []string{}
	seen := map[string]bool{}

	for _, s := range fields.Samples {
		if !seen[s.Name] {
			seen[s.Name] = true
			names = append(names, s.Name)
		}
	}
	for _, leaf := range queryir.Flatten(tree) {
		if leaf.Table != queryir.TableSample {
			continue
		}
		if !seen[leaf.Sample] {
			seen[leaf.Sample] = true
			names = append(names, leaf.Sample)
		}
	}
	return names
}

// CompileFilters renders a filter tree as WHERE clause text, without
// the WHERE keyword. A nil tree yields the empty string; an empty $and
// yields the literal text "()", which callers still emit.
//
// The tree is assumed valid (see queryir.Validate); malformed nodes
// surface as errors rather than bad SQL.
func CompileFilters(n queryir.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	return compileNode(n)
}

func compileNode(n queryir.Node) (string, error) {
	switch node := n.(type) {
	case queryir.And:
		return compileBoolean(node.Children, " AND ")
	case *queryir.And:
		return compileBoolean(node.Children, " AND ")
	case queryir.Or:
		return compileBoolean(node.Children, " OR ")
	case *queryir.Or:
		return compileBoolean(node.Children, " OR ")
	case queryir.Condition:
		return CompileCondition(node)
	case *queryir.Condition:
		return CompileCondition(*node)
	default:
		return "", fmt.Errorf("unsupported node type: %T", n)
	}
}

// compileBoolean joins child texts and parenthesizes the group. Boolean
// nodes always parenthesize; only a bare leaf at the top level of a
// tree is emitted without parentheses.
func compileBoolean(children []queryir.Node, sep string) (string, error) {
	parts := make([]string, 0, len(children))
	for _, child := range children {
		text, err := compileNode(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// CompileCondition renders one comparison leaf.
func CompileCondition(cond queryir.Condition) (string, error) {
	col := conditionColumn(cond)

	switch cond.Op {
	case queryir.OpEq, queryir.OpNe:
		lit, ok := cond.Operand.(queryir.Literal)
		if !ok {
			return "", fmt.Errorf("operator %s requires a literal operand", cond.Op)
		}
		if _, isNull := lit.Value.(ir.Null); isNull {
			if cond.Op == queryir.OpEq {
				return col + " IS NULL", nil
			}
			return col + " IS NOT NULL", nil
		}
		op := "="
		if cond.Op == queryir.OpNe {
			op = "!="
		}
		text, err := formatScalar(lit.Value)
		if err != nil {
			return "", err
		}
		return col + " " + op + " " + text, nil

	case queryir.OpGt, queryir.OpGte, queryir.OpLt, queryir.OpLte:
		lit, ok := cond.Operand.(queryir.Literal)
		if !ok {
			return "", fmt.Errorf("operator %s requires a literal operand", cond.Op)
		}
		text, err := formatScalar(lit.Value)
		if err != nil {
			return "", err
		}
		return col + " " + comparisonSQL(cond.Op) + " " + text, nil

	case queryir.OpIn, queryir.OpNotIn:
		op := "IN"
		if cond.Op == queryir.OpNotIn {
			op = "NOT IN"
		}
		operand, err := membershipOperand(cond.Operand)
		if err != nil {
			return "", err
		}
		return col + " " + op + " " + operand, nil

	case queryir.OpRegex:
		lit, ok := cond.Operand.(queryir.Literal)
		if !ok {
			return "", fmt.Errorf("operator %s requires a literal operand", cond.Op)
		}
		pattern, ok := lit.Value.(ir.Str)
		if !ok {
			return "", fmt.Errorf("operator %s requires a string operand", cond.Op)
		}
		return col + " REGEXP " + formatString(string(pattern)), nil

	default:
		return "", fmt.Errorf("unsupported operator: %s", cond.Op)
	}
}

func comparisonSQL(op queryir.Operator) string {
	switch op {
	case queryir.OpGt:
		return ">"
	case queryir.OpGte:
		return ">="
	case queryir.OpLt:
		return "<"
	default:
		return "<="
	}
}

// membershipOperand renders the right side of IN / NOT IN: a literal
// list, or a subquery against the wordsets table for word set
// references.
func membershipOperand(operand queryir.Operand) (string, error) {
	switch rhs := operand.(type) {
	case queryir.WordsetRef:
		return "(SELECT value FROM wordsets WHERE name = '" + rhs.Name + "')", nil
	case queryir.Literal:
		lst, ok := rhs.Value.(ir.List)
		if !ok {
			return "", fmt.Errorf("membership operator requires a list operand, got %T", rhs.Value)
		}
		return formatList(lst)
	default:
		return "", fmt.Errorf("unsupported operand type: %T", operand)
	}
}

// Table names and aliases as they appear in emitted SQL.
const (
	variantTable    = "variant"
	annotationTable = "annotation"
)

func sampleTable(name string) string {
	return "sample_" + name
}

func conditionColumn(cond queryir.Condition) string {
	switch cond.Table {
	case queryir.TableAnnotation:
		return columnRef(annotationTable, cond.Field)
	case queryir.TableSample:
		return columnRef(sampleTable(cond.Sample), cond.Field)
	default:
		return columnRef(variantTable, cond.Field)
	}
}

func columnRef(table, field string) string {
	return "`" + table + "`.`" + field + "`"
}

// formatScalar renders one literal in SQL text form. Strings are
// single-quoted verbatim with no escaping, matching the stored query
// text contract. Bools become 1/0 to match their integer column
// affinity.
func formatScalar(v ir.Value) (string, error) {
	switch val := v.(type) {
	case ir.Str:
		return formatString(string(val)), nil
	case ir.Int:
		return strconv.FormatInt(int64(val), 10), nil
	case ir.Float:
		return formatFloat(float64(val)), nil
	case ir.Bool:
		if val {
			return "1", nil
		}
		return "0", nil
	case ir.Null:
		return "NULL", nil
	default:
		return "", fmt.Errorf("unsupported literal type: %T", v)
	}
}

func formatString(s string) string {
	return "'" + s + "'"
}

// formatFloat keeps a visible fractional part, so a float-typed 11
// renders as 11.0 and stays distinguishable from the integer 11.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// formatList renders a literal list with each element keeping its own
// formatting, e.g. ('CICP23',2.0).
func formatList(lst ir.List) (string, error) {
	parts := make([]string, 0, len(lst))
	for _, elem := range lst {
		text, err := formatScalar(elem)
		if err != nil {
			return "", err
		}
		parts = append(parts, text)
	}
	return "(" + strings.Join(parts, ",") + ")", nil
}
