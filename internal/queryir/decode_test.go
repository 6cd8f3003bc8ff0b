package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variantlab/varq/internal/ir"
)

func decodeOK(t *testing.T, doc string) Node {
	t.Helper()
	n, err := DecodeFilter([]byte(doc))
	require.NoError(t, err)
	return n
}

func TestDecodeFilter_Empty(t *testing.T) {
	assert.Nil(t, decodeOK(t, `{}`))
	assert.Nil(t, decodeOK(t, `null`))
}

func TestDecodeFilter_BareLiteralIsEq(t *testing.T) {
	n := decodeOK(t, `{"chr": "chr3"}`)

	assert.Equal(t, cond(TableVariant, "chr", OpEq, ir.Str("chr3")), n)
}

func TestDecodeFilter_DefaultTableIsVariant(t *testing.T) {
	n := decodeOK(t, `{"qual": {"$gte": 4}}`)

	assert.Equal(t, cond(TableVariant, "qual", OpGte, ir.Int(4)), n)
}

func TestDecodeFilter_ExplicitTable(t *testing.T) {
	n := decodeOK(t, `{"$table": "annotation", "gene": "CFTR"}`)

	assert.Equal(t, cond(TableAnnotation, "gene", OpEq, ir.Str("CFTR")), n)
}

func TestDecodeFilter_SampleLeaf(t *testing.T) {
	n := decodeOK(t, `{"$table": "sample", "$name": "boby", "gt": 1}`)

	want := Condition{
		Table:   TableSample,
		Sample:  "boby",
		Field:   "gt",
		Op:      OpEq,
		Operand: Literal{Value: ir.Int(1)},
	}
	assert.Equal(t, want, n)
}

func TestDecodeFilter_AllOperators(t *testing.T) {
	tests := []struct {
		doc string
		op  Operator
	}{
		{`{"qual": {"$eq": 4}}`, OpEq},
		{`{"qual": {"$ne": 4}}`, OpNe},
		{`{"qual": {"$gt": 4}}`, OpGt},
		{`{"qual": {"$gte": 4}}`, OpGte},
		{`{"qual": {"$lt": 4}}`, OpLt},
		{`{"qual": {"$lte": 4}}`, OpLte},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			n := decodeOK(t, tt.doc)
			leaf, ok := n.(Condition)
			require.True(t, ok)
			assert.Equal(t, tt.op, leaf.Op)
		})
	}
}

func TestDecodeFilter_InList(t *testing.T) {
	n := decodeOK(t, `{"qual": {"$in": [1, 2, 3]}}`)

	leaf := n.(Condition)
	assert.Equal(t, OpIn, leaf.Op)
	assert.Equal(t, Literal{Value: ir.List{ir.Int(1), ir.Int(2), ir.Int(3)}}, leaf.Operand)
}

func TestDecodeFilter_InMixedList(t *testing.T) {
	// Elements keep their own literal types
	n := decodeOK(t, `{"gene": {"$in": ["CICP23", 2.0]}}`)

	leaf := n.(Condition)
	assert.Equal(t, Literal{Value: ir.List{ir.Str("CICP23"), ir.Float(2)}}, leaf.Operand)
}

func TestDecodeFilter_Wordset(t *testing.T) {
	n := decodeOK(t, `{"gene": {"$in": {"$wordset": "coucou"}}}`)

	leaf := n.(Condition)
	assert.Equal(t, OpIn, leaf.Op)
	assert.Equal(t, WordsetRef{Name: "coucou"}, leaf.Operand)
}

func TestDecodeFilter_NullLiteral(t *testing.T) {
	n := decodeOK(t, `{"ref": null}`)
	assert.Equal(t, cond(TableVariant, "ref", OpEq, ir.Null{}), n)

	n = decodeOK(t, `{"ref": {"$ne": null}}`)
	assert.Equal(t, cond(TableVariant, "ref", OpNe, ir.Null{}), n)
}

func TestDecodeFilter_Regex(t *testing.T) {
	n := decodeOK(t, `{"alt": {"$regex": "^C"}}`)

	assert.Equal(t, cond(TableVariant, "alt", OpRegex, ir.Str("^C")), n)
}

func TestDecodeFilter_NestedTree(t *testing.T) {
	n := decodeOK(t, `{"$and": [
		{"ref": "A"},
		{"$or": [
			{"pos": {"$gte": 10}},
			{"pos": {"$lte": 100}}
		]}
	]}`)

	want := And{Children: []Node{
		cond(TableVariant, "ref", OpEq, ir.Str("A")),
		Or{Children: []Node{
			cond(TableVariant, "pos", OpGte, ir.Int(10)),
			cond(TableVariant, "pos", OpLte, ir.Int(100)),
		}},
	}}
	assert.Equal(t, want, n)
}

func TestDecodeFilter_EmptyAnd(t *testing.T) {
	n := decodeOK(t, `{"$and": []}`)

	assert.Equal(t, And{Children: []Node{}}, n)
}

func TestDecodeFilter_EmptyChildDropped(t *testing.T) {
	// An empty mapping inside a boolean list contributes nothing
	n := decodeOK(t, `{"$and": [{}, {"chr": "chr3"}]}`)

	assert.Equal(t, And{Children: []Node{cond(TableVariant, "chr", OpEq, ir.Str("chr3"))}}, n)
}

func TestDecodeFilter_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{`},
		{"not a mapping", `[1, 2]`},
		{"scalar document", `42`},
		{"boolean node extra key", `{"$and": [], "chr": "chr3"}`},
		{"and not a list", `{"$and": {"chr": "chr3"}}`},
		{"unknown table", `{"$table": "genes", "gene": "CFTR"}`},
		{"table not a string", `{"$table": 3, "gene": "CFTR"}`},
		{"sample without name", `{"$table": "sample", "gt": 1}`},
		{"name on variant leaf", `{"$name": "boby", "chr": "chr3"}`},
		{"name not a string", `{"$table": "sample", "$name": 1, "gt": 1}`},
		{"two attributes", `{"chr": "chr3", "pos": 10}`},
		{"no attributes", `{"$table": "variant"}`},
		{"reserved attribute", `{"$like": "x"}`},
		{"unknown operator", `{"chr": {"$matches": "x"}}`},
		{"two operators", `{"pos": {"$gt": 1, "$lt": 10}}`},
		{"wordset under eq", `{"gene": {"$eq": {"$wordset": "w"}}}`},
		{"wordset extra keys", `{"gene": {"$in": {"$wordset": "w", "x": 1}}}`},
		{"wordset name not string", `{"gene": {"$in": {"$wordset": 3}}}`},
		{"in without list", `{"gene": {"$in": "CFTR"}}`},
		{"bare list operand", `{"chr": [11.0, 12.0]}`},
		{"null under gt", `{"pos": {"$gt": null}}`},
		{"regex non-string", `{"alt": {"$regex": 3}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFilter([]byte(tt.doc))
			require.Error(t, err)

			var perr *ParseError
			assert.ErrorAs(t, err, &perr)
		})
	}
}

func TestDecodeFilter_ErrorPath(t *testing.T) {
	_, err := DecodeFilter([]byte(`{"$and": [{"chr": "chr3"}, {"pos": {"$gt": null}}]}`))
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "$and[1].pos", perr.Path)
	assert.Contains(t, err.Error(), "$and[1].pos")
}

func TestFilterFromGo_YAMLShapedInput(t *testing.T) {
	// The yaml decoder hands over map[string]any with plain Go scalars
	doc := map[string]any{
		"$and": []any{
			map[string]any{"ref": "A"},
			map[string]any{"qual": map[string]any{"$gte": 30}},
		},
	}

	n, err := FilterFromGo(doc)
	require.NoError(t, err)

	want := And{Children: []Node{
		cond(TableVariant, "ref", OpEq, ir.Str("A")),
		cond(TableVariant, "qual", OpGte, ir.Int(30)),
	}}
	assert.Equal(t, want, n)
}
