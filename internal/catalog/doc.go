// Package catalog defines field descriptors and the ordered registry
// they live in.
//
// The set of columns in the variant, annotation, and genotype tables is
// not known until a data source declares it, so the schema builder and
// the row ingest both work from a Registry instead of static structs.
// Registration order is part of the contract: it determines column
// order in created tables and field order in result rows.
package catalog
