package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/variantlab/varq/internal/ir"
)

func TestNode_Sealed(t *testing.T) {
	// Verify all types implement Node (compile-time check via assignment)
	var _ Node = And{}
	var _ Node = Or{}
	var _ Node = Condition{}

	var _ Operand = Literal{}
	var _ Operand = WordsetRef{}
}

func TestCondition_Construction(t *testing.T) {
	c := Condition{
		Table:   TableSample,
		Sample:  "TUMOR",
		Field:   "gt",
		Op:      OpGte,
		Operand: Literal{Value: ir.Int(1)},
	}

	assert.Equal(t, TableSample, c.Table)
	assert.Equal(t, "TUMOR", c.Sample)
	assert.Equal(t, OpGte, c.Op)
}

func cond(table Table, field string, op Operator, v ir.Value) Condition {
	return Condition{Table: table, Field: field, Op: op, Operand: Literal{Value: v}}
}

func TestFlatten_Nil(t *testing.T) {
	assert.Empty(t, Flatten(nil))
}

func TestFlatten_SingleLeaf(t *testing.T) {
	leaf := cond(TableVariant, "chr", OpEq, ir.Str("chr3"))

	assert.Equal(t, []Condition{leaf}, Flatten(leaf))
}

func TestFlatten_DocumentOrder(t *testing.T) {
	a := cond(TableVariant, "ref", OpEq, ir.Str("A"))
	b := cond(TableVariant, "alt", OpEq, ir.Str("C"))
	c := cond(TableAnnotation, "gene", OpEq, ir.Str("CFTR"))
	d := cond(TableVariant, "pos", OpGt, ir.Int(100))

	tree := And{Children: []Node{
		a,
		Or{Children: []Node{b, c}},
		d,
	}}

	assert.Equal(t, []Condition{a, b, c, d}, Flatten(tree))
}

func TestFlatten_PointerNodes(t *testing.T) {
	leaf := cond(TableSample, "gt", OpEq, ir.Int(1))
	leaf.Sample = "TUMOR"

	tree := &And{Children: []Node{&Or{Children: []Node{&leaf}}}}

	assert.Equal(t, []Condition{leaf}, Flatten(tree))
}

func TestFlatten_EmptyBoolean(t *testing.T) {
	assert.Empty(t, Flatten(And{}))
	assert.Empty(t, Flatten(Or{}))
}
