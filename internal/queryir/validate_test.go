package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variantlab/varq/internal/ir"
)

func TestValidate_NilTree(t *testing.T) {
	assert.NoError(t, Validate(nil))
}

func TestValidate_WellFormedTree(t *testing.T) {
	tree := And{Children: []Node{
		cond(TableVariant, "chr", OpEq, ir.Str("chr3")),
		Or{Children: []Node{
			cond(TableAnnotation, "gene", OpIn, ir.List{ir.Str("CFTR")}),
			Condition{
				Table:   TableSample,
				Sample:  "TUMOR",
				Field:   "gt",
				Op:      OpGte,
				Operand: Literal{Value: ir.Int(1)},
			},
		}},
	}}

	assert.NoError(t, Validate(tree))
}

func TestValidate_WordsetUnderIn(t *testing.T) {
	leaf := Condition{
		Table:   TableVariant,
		Field:   "gene",
		Op:      OpNotIn,
		Operand: WordsetRef{Name: "cancer_genes"},
	}

	assert.NoError(t, Validate(leaf))
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name string
		node Node
	}{
		{
			"unknown table",
			Condition{Table: "genes", Field: "gene", Op: OpEq, Operand: Literal{Value: ir.Str("x")}},
		},
		{
			"sample without name",
			Condition{Table: TableSample, Field: "gt", Op: OpEq, Operand: Literal{Value: ir.Int(1)}},
		},
		{
			"name on variant leaf",
			Condition{Table: TableVariant, Sample: "boby", Field: "chr", Op: OpEq, Operand: Literal{Value: ir.Str("1")}},
		},
		{
			"sample name with backtick",
			Condition{Table: TableSample, Sample: "bo`by", Field: "gt", Op: OpEq, Operand: Literal{Value: ir.Int(1)}},
		},
		{
			"empty field",
			Condition{Table: TableVariant, Op: OpEq, Operand: Literal{Value: ir.Str("x")}},
		},
		{
			"field with backtick",
			Condition{Table: TableVariant, Field: "ch`r", Op: OpEq, Operand: Literal{Value: ir.Str("x")}},
		},
		{
			"unknown operator",
			Condition{Table: TableVariant, Field: "chr", Op: "$like", Operand: Literal{Value: ir.Str("x")}},
		},
		{
			"missing operand",
			Condition{Table: TableVariant, Field: "chr", Op: OpEq},
		},
		{
			"nil literal",
			Condition{Table: TableVariant, Field: "chr", Op: OpEq, Operand: Literal{}},
		},
		{
			"wordset under gt",
			Condition{Table: TableVariant, Field: "gene", Op: OpGt, Operand: WordsetRef{Name: "w"}},
		},
		{
			"empty wordset name",
			Condition{Table: TableVariant, Field: "gene", Op: OpIn, Operand: WordsetRef{}},
		},
		{
			"wordset name with quote",
			Condition{Table: TableVariant, Field: "gene", Op: OpIn, Operand: WordsetRef{Name: "o'clock"}},
		},
		{
			"in with scalar",
			cond(TableVariant, "qual", OpIn, ir.Int(3)),
		},
		{
			"in with nested list",
			cond(TableVariant, "qual", OpIn, ir.List{ir.List{ir.Int(1)}}),
		},
		{
			"eq with list",
			cond(TableVariant, "chr", OpEq, ir.List{ir.Float(11), ir.Float(12)}),
		},
		{
			"null under lt",
			cond(TableVariant, "pos", OpLt, ir.Null{}),
		},
		{
			"regex with int",
			cond(TableVariant, "alt", OpRegex, ir.Int(1)),
		},
		{
			"nil child",
			And{Children: []Node{nil}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.node)
			require.Error(t, err)

			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestValidate_DescendsIntoBranches(t *testing.T) {
	bad := cond(TableVariant, "pos", OpGt, ir.Null{})
	tree := And{Children: []Node{
		cond(TableVariant, "chr", OpEq, ir.Str("1")),
		Or{Children: []Node{bad}},
	}}

	err := Validate(tree)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "$and[1].$or[0].pos", perr.Path)
}

func TestValidateQuery_Defaults(t *testing.T) {
	assert.NoError(t, ValidateQuery(NewQuery()))
}

func TestValidateQuery_Rejections(t *testing.T) {
	tests := []struct {
		name string
		q    func() Query
	}{
		{"bad projection field", func() Query {
			q := NewQuery()
			q.Fields = Projection{Variant: []string{"ch`r"}}
			return q
		}},
		{"bad group field", func() Query {
			q := NewQuery()
			q.GroupBy = Projection{Variant: []string{""}}
			return q
		}},
		{"bad order sample", func() Query {
			q := NewQuery()
			q.OrderBy = Projection{Samples: []SampleFields{{Name: "", Fields: []string{"gt"}}}}
			return q
		}},
		{"source with quote", func() Query {
			q := NewQuery()
			q.Source = "bob's"
			return q
		}},
		{"negative offset", func() Query {
			q := NewQuery()
			q.Offset = -1
			return q
		}},
		{"bad filter", func() Query {
			q := NewQuery()
			q.Filters = cond(TableVariant, "pos", OpGt, ir.Null{})
			return q
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateQuery(tt.q()))
		})
	}
}
