// Package harness runs query-compilation conformance scenarios.
//
// A scenario is a YAML file holding named query documents and a fixed
// sample name to id map. The harness compiles each document and
// compares the emitted SQL verbatim against a golden file, so the
// exact clause order, spacing, and literal formatting of the compiler
// stay pinned.
package harness
