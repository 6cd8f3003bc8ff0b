package queryir

import (
	"errors"

	"gopkg.in/yaml.v3"
)

// Query defaults. A Limit of zero or less means no LIMIT clause at all,
// so callers wanting the standard first page go through NewQuery.
const (
	DefaultLimit  = 50
	DefaultSource = "variant"
)

// Query bundles everything the SQL compiler needs to emit one SELECT:
// the projection, the source selection, the filter tree, and the
// grouping, ordering, and paging options.
type Query struct {
	Fields    Projection
	Source    string
	Filters   Node
	GroupBy   Projection
	OrderBy   Projection
	OrderDesc bool
	Limit     int
	Offset    int
}

// NewQuery returns a query against the full variant table with the
// default page size and no filter.
func NewQuery() Query {
	return Query{Source: DefaultSource, Limit: DefaultLimit}
}

// UnmarshalYAML implements yaml.Unmarshaler. Absent keys keep the
// NewQuery defaults, so a document that only sets filters still gets
// the standard page size.
func (q *Query) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return parseErrorf("", "query must be a mapping, got %s", yamlKind(node.Kind))
	}

	out := NewQuery()
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var err error
		switch key.Value {
		case "fields":
			err = val.Decode(&out.Fields)
		case "source":
			err = val.Decode(&out.Source)
		case "filters":
			var raw any
			if err = val.Decode(&raw); err == nil {
				out.Filters, err = FilterFromGo(raw)
			}
		case "group_by":
			err = val.Decode(&out.GroupBy)
		case "order_by":
			err = val.Decode(&out.OrderBy)
		case "order_desc":
			err = val.Decode(&out.OrderDesc)
		case "limit":
			err = val.Decode(&out.Limit)
		case "offset":
			err = val.Decode(&out.Offset)
		default:
			return parseErrorf(key.Value, "unknown query key")
		}
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) {
				return err
			}
			return parseErrorf(key.Value, "%v", err)
		}
	}

	*q = out
	return nil
}
