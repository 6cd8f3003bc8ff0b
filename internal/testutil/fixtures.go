// Package testutil provides deterministic fixtures shared by tests:
// a small demo field catalog and matching ingest records, modeled on a
// minimal three-variant VCF import with one sample.
package testutil

import "github.com/variantlab/varq/internal/catalog"

// DemoFields returns the demo field descriptors in registration order:
// four variant fields, two annotation fields, two genotype fields.
func DemoFields() []catalog.Field {
	return []catalog.Field{
		{Name: "chr", Category: catalog.CategoryVariant, Type: catalog.TypeStr, Description: "chromosome"},
		{Name: "pos", Category: catalog.CategoryVariant, Type: catalog.TypeInt, Description: "position"},
		{Name: "ref", Category: catalog.CategoryVariant, Type: catalog.TypeStr, Description: "reference base"},
		{Name: "alt", Category: catalog.CategoryVariant, Type: catalog.TypeStr, Description: "alternative base"},
		{Name: "gene", Category: catalog.CategoryAnnotation, Type: catalog.TypeStr, Description: "gene name"},
		{Name: "transcript", Category: catalog.CategoryAnnotation, Type: catalog.TypeStr, Description: "gene transcript"},
		{Name: "gt", Category: catalog.CategorySample, Type: catalog.TypeInt, Description: "genotype"},
		{Name: "af", Category: catalog.CategorySample, Type: catalog.TypeFloat, Description: "allele frequency"},
	}
}

// DemoRegistry returns a registry populated with DemoFields.
func DemoRegistry() *catalog.Registry {
	reg := catalog.NewRegistry()
	if err := reg.Register(DemoFields()...); err != nil {
		panic(err) // fixtures are static, registration cannot fail
	}
	return reg
}

// DemoSampleNames returns the sample names the demo records reference.
func DemoSampleNames() []string {
	return []string{"sacha"}
}

// DemoRecordDocs returns three ingest record documents in the decoded
// document form (as the yaml and json decoders produce them), each with
// a two-transcript annotation fan-out and one genotype entry.
func DemoRecordDocs() []map[string]any {
	docs := make([]map[string]any, 0, 3)
	for _, chr := range []string{"11", "12", "13"} {
		docs = append(docs, map[string]any{
			"chr": chr,
			"pos": 125010,
			"ref": "T",
			"alt": "A",
			"annotations": []any{
				map[string]any{"transcript": "NM_234234", "gene": "CFTR"},
				map[string]any{"transcript": "NM_234235", "gene": "CFTR"},
			},
			"samples": []any{
				map[string]any{"name": "sacha", "gt": 1, "af": 0.5},
			},
		})
	}
	return docs
}
