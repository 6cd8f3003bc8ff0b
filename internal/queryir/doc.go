// Package queryir provides the filter tree and query document types for
// varq's variant query system.
//
// The tree is the abstraction boundary between the document form users
// write (JSON or YAML) and the SQL compiler. Decoding, validation, and
// compilation are separate steps so a malformed document fails before
// any SQL is built.
//
// ARCHITECTURE:
//
//	[filter document] → [queryir tree] → [querysql compiler] → SQL text
//
// DOCUMENT FORM:
//
// A filter document is a nesting of boolean nodes and condition leaves:
//
//	{"$and": [
//	  {"chr": "chr3"},
//	  {"$table": "annotation", "gene": {"$in": ["CFTR", "GJB2"]}},
//	  {"$table": "sample", "$name": "TUMOR", "gt": {"$gte": 1}}
//	]}
//
// Leaf rules:
//   - $table defaults to "variant"; "sample" leaves also need $name
//   - exactly one non-reserved key, the field under test
//   - a bare literal value is shorthand for {"$eq": value}
//   - $in/$nin take a list or {"$wordset": name}
//
// SEALED INTERFACES:
//
// Node and Operand are sealed interfaces using the marker method
// pattern. Only types in this package can implement them, which keeps
// type switches in the compiler exhaustive.
//
// Projection and Query preserve document order during decoding: the
// order fields and samples appear in the document is the order they
// appear in compiled SQL.
package queryir
