package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/variantlab/varq/internal/ir"
)

func TestNewQuery_Defaults(t *testing.T) {
	q := NewQuery()

	assert.Equal(t, DefaultSource, q.Source)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, 0, q.Offset)
	assert.Nil(t, q.Filters)
	assert.True(t, q.Fields.IsEmpty())
}

func TestQuery_UnmarshalYAML(t *testing.T) {
	doc := `
fields:
  variant: [chr, pos]
  sample:
    TUMOR: [gt]
source: damaging
filters:
  $and:
    - ref: A
    - qual: {$gte: 30}
group_by:
  variant: [chr]
order_by:
  variant: [pos]
order_desc: true
limit: 10
offset: 4
`
	var q Query
	require.NoError(t, yaml.Unmarshal([]byte(doc), &q))

	assert.Equal(t, []string{"chr", "pos"}, q.Fields.Variant)
	assert.Equal(t, []SampleFields{{Name: "TUMOR", Fields: []string{"gt"}}}, q.Fields.Samples)
	assert.Equal(t, "damaging", q.Source)
	assert.Equal(t, []string{"chr"}, q.GroupBy.Variant)
	assert.Equal(t, []string{"pos"}, q.OrderBy.Variant)
	assert.True(t, q.OrderDesc)
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 4, q.Offset)

	want := And{Children: []Node{
		cond(TableVariant, "ref", OpEq, ir.Str("A")),
		cond(TableVariant, "qual", OpGte, ir.Int(30)),
	}}
	assert.Equal(t, want, q.Filters)
}

func TestQuery_UnmarshalYAMLKeepsDefaults(t *testing.T) {
	// A document that only sets filters still gets the standard page
	doc := `
filters:
  chr: chr3
`
	var q Query
	require.NoError(t, yaml.Unmarshal([]byte(doc), &q))

	assert.Equal(t, DefaultSource, q.Source)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, cond(TableVariant, "chr", OpEq, ir.Str("chr3")), q.Filters)
}

func TestQuery_UnmarshalYAMLExplicitNoLimit(t *testing.T) {
	doc := `
limit: 0
`
	var q Query
	require.NoError(t, yaml.Unmarshal([]byte(doc), &q))

	assert.Equal(t, 0, q.Limit)
}

func TestQuery_UnmarshalYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not a mapping", `- a`},
		{"unknown key", `page: 3`},
		{"bad filters", "filters:\n  pos: {$gt: null}"},
		{"bad limit", `limit: many`},
		{"bad fields", `fields: [chr]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Query
			assert.Error(t, yaml.Unmarshal([]byte(tt.doc), &q))
		})
	}
}

func TestQuery_UnmarshalYAMLFilterErrorKeepsPath(t *testing.T) {
	var q Query
	err := yaml.Unmarshal([]byte("filters:\n  pos: {$gt: null}"), &q)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "pos", perr.Path)
}
