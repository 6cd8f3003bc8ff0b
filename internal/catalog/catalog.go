package catalog

import (
	"fmt"
	"strings"
)

// Category identifies which table a field belongs to.
type Category string

const (
	// CategoryVariant fields become columns of the variant table.
	CategoryVariant Category = "variant"

	// CategoryAnnotation fields become columns of the annotation table.
	CategoryAnnotation Category = "annotation"

	// CategorySample fields become columns of every per-sample genotype
	// table.
	CategorySample Category = "sample"
)

// Categories lists every valid category in table-creation order.
var Categories = []Category{CategoryVariant, CategoryAnnotation, CategorySample}

// Type is the declared value type of a field.
type Type string

const (
	TypeStr   Type = "str"
	TypeInt   Type = "int"
	TypeFloat Type = "float"
	TypeBool  Type = "bool"
)

// SQLType returns the SQLite column type for a field type. Bool columns
// use INTEGER affinity and store 1/0.
func (t Type) SQLType() (string, error) {
	switch t {
	case TypeStr:
		return "TEXT", nil
	case TypeInt:
		return "INTEGER", nil
	case TypeFloat:
		return "REAL", nil
	case TypeBool:
		return "INTEGER", nil
	default:
		return "", fmt.Errorf("unknown field type %q", string(t))
	}
}

// Field describes one dynamic column: its name, which table it belongs
// to, its declared type, and a human-readable description.
type Field struct {
	Name        string   `json:"name" yaml:"name"`
	Category    Category `json:"category" yaml:"category"`
	Type        Type     `json:"type" yaml:"type"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// Key returns the unique (category, name) key of the field.
func (f Field) Key() string {
	return string(f.Category) + "." + f.Name
}

// reservedNames are column names owned by the schema builder. Fields
// cannot shadow them.
var reservedNames = map[string]bool{
	"id":         true,
	"variant_id": true,
	"sample_id":  true,
}

// Validate checks that the field can become a column: a known category
// and type, and a name that survives backtick quoting.
func (f Field) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("field has no name")
	}
	if strings.ContainsAny(f.Name, "`'\" \t\n") {
		return fmt.Errorf("invalid field name %q", f.Name)
	}
	if reservedNames[f.Name] {
		return fmt.Errorf("field name %q is reserved", f.Name)
	}
	switch f.Category {
	case CategoryVariant, CategoryAnnotation, CategorySample:
	default:
		return fmt.Errorf("field %q: unknown category %q", f.Name, string(f.Category))
	}
	if _, err := f.Type.SQLType(); err != nil {
		return fmt.Errorf("field %q: %w", f.Name, err)
	}
	return nil
}

// ConflictError reports a registration that would redefine an existing
// field with a different type or description.
type ConflictError struct {
	Existing Field
	Incoming Field
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("field %s already registered as %s, cannot redefine as %s",
		e.Existing.Key(), string(e.Existing.Type), string(e.Incoming.Type))
}

// Registry holds registered fields in registration order. The order is
// observable: it drives column order in every created table and the
// shape of result rows, so it is carried explicitly rather than left to
// map iteration.
//
// Registry is not safe for concurrent mutation; registration happens
// once, before the schema is built.
type Registry struct {
	fields []Field
	index  map[string]int
}

// NewRegistry creates an empty field registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register adds fields to the registry, preserving argument order.
// Re-registering an identical field is a no-op. Registering a field
// whose (category, name) exists with a different type or description
// returns a ConflictError and leaves the registry unchanged.
func (r *Registry) Register(fields ...Field) error {
	for _, f := range fields {
		if err := f.Validate(); err != nil {
			return err
		}
		if i, ok := r.index[f.Key()]; ok {
			existing := r.fields[i]
			if existing != f {
				return &ConflictError{Existing: existing, Incoming: f}
			}
			continue
		}
	}

	for _, f := range fields {
		if _, ok := r.index[f.Key()]; ok {
			continue
		}
		r.index[f.Key()] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return nil
}

// Fields returns every registered field in registration order.
func (r *Registry) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// ByCategory returns the registered fields of one category, in
// registration order.
func (r *Registry) ByCategory(c Category) []Field {
	out := []Field{}
	for _, f := range r.fields {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}

// Lookup finds a field by category and name.
func (r *Registry) Lookup(c Category, name string) (Field, bool) {
	i, ok := r.index[string(c)+"."+name]
	if !ok {
		return Field{}, false
	}
	return r.fields[i], true
}

// Len returns the number of registered fields.
func (r *Registry) Len() int {
	return len(r.fields)
}
