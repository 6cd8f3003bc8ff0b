package store

import (
	"context"
	"fmt"

	"github.com/variantlab/varq/internal/ir"
	"github.com/variantlab/varq/internal/queryir"
	"github.com/variantlab/varq/internal/querysql"
)

// Row is one result row: the variant identity plus the projected
// fields, keyed by their result labels.
type Row struct {
	ID     int64
	Fields ir.Object
}

// Result is the outcome of an executed query: the ordered result
// labels ("id" first, then the projection's field order) and the rows.
type Result struct {
	SQL     string
	Columns []string
	Rows    []Row
}

// Compiler returns a SQL compiler loaded with the store's current
// sample name to id map.
func (s *Store) Compiler(ctx context.Context) (*querysql.Compiler, error) {
	ids, err := s.SampleIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("compiler: %w", err)
	}
	return &querysql.Compiler{SampleIDs: ids}, nil
}

// RunQuery compiles and executes a query document. The source must be
// the variant table or an existing selection; an unknown selection
// fails with NotFoundError before anything executes.
func (s *Store) RunQuery(ctx context.Context, q queryir.Query) (*Result, error) {
	if q.Source != "" && q.Source != queryir.DefaultSource {
		if _, err := s.SelectionByName(ctx, q.Source); err != nil {
			return nil, err
		}
	}

	comp, err := s.Compiler(ctx)
	if err != nil {
		return nil, err
	}
	queryText, err := comp.CompileQuery(q)
	if err != nil {
		return nil, err
	}

	columns := resultColumns(q.Fields)

	rows, err := s.db.QueryContext(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	result := &Result{SQL: queryText, Columns: columns, Rows: []Row{}}
	scan := make([]any, len(columns))
	for rows.Next() {
		var id int64
		scan[0] = &id
		for i := 1; i < len(scan); i++ {
			scan[i] = new(any)
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("run query: scan: %w", err)
		}

		row := Row{ID: id, Fields: ir.Object{}}
		for i := 1; i < len(scan); i++ {
			val, err := valueFromDriver(*scan[i].(*any))
			if err != nil {
				return nil, fmt.Errorf("run query: column %q: %w", columns[i], err)
			}
			row.Fields[columns[i]] = val
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("run query: iterate: %w", err)
	}

	return result, nil
}

// resultColumns returns the result labels in projection order. Variant
// and annotation fields keep their names; genotype fields are labeled
// "<sample>.<field>" so two samples projecting the same field do not
// collide.
func resultColumns(p queryir.Projection) []string {
	columns := []string{"id"}
	columns = append(columns, p.Variant...)
	columns = append(columns, p.Annotation...)
	for _, smp := range p.Samples {
		for _, f := range smp.Fields {
			columns = append(columns, smp.Name+"."+f)
		}
	}
	return columns
}

// valueFromDriver converts a scanned driver value into an ir.Value.
func valueFromDriver(v any) (ir.Value, error) {
	switch val := v.(type) {
	case nil:
		return ir.Null{}, nil
	case int64:
		return ir.Int(val), nil
	case float64:
		return ir.Float(val), nil
	case bool:
		return ir.Bool(val), nil
	case string:
		return ir.Str(val), nil
	case []byte:
		return ir.Str(string(val)), nil
	default:
		return nil, fmt.Errorf("unsupported driver value %T", v)
	}
}
