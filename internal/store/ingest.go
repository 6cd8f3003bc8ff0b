package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/variantlab/varq/internal/catalog"
	"github.com/variantlab/varq/internal/ir"
)

// Genotype is one sample's genotype entry attached to a record.
type Genotype struct {
	Sample string
	Fields ir.Object
}

// Record is one logical ingest record: the variant fields plus the
// per-transcript annotation fan-out and the per-sample genotypes.
type Record struct {
	Fields      ir.Object
	Annotations []ir.Object
	Samples     []Genotype
}

// Reserved record keys that carry nested entries rather than variant
// fields.
const (
	recordKeyAnnotations = "annotations"
	recordKeySamples     = "samples"
	genotypeKeyName      = "name"
)

// RecordFromGo converts a decoded document (map[string]any as produced
// by the yaml and json decoders) into a Record. Top-level keys are
// variant fields except "annotations" (a list of annotation objects)
// and "samples" (a list of genotype objects, each carrying a "name").
func RecordFromGo(doc map[string]any) (Record, error) {
	rec := Record{Fields: ir.Object{}}

	for key, raw := range doc {
		switch key {
		case recordKeyAnnotations:
			items, ok := raw.([]any)
			if !ok {
				return Record{}, fmt.Errorf("record: %s must be a list, got %T", recordKeyAnnotations, raw)
			}
			for i, item := range items {
				m, ok := item.(map[string]any)
				if !ok {
					return Record{}, fmt.Errorf("record: %s[%d] must be a mapping, got %T", recordKeyAnnotations, i, item)
				}
				val, err := ir.FromGo(m)
				if err != nil {
					return Record{}, fmt.Errorf("record: %s[%d]: %w", recordKeyAnnotations, i, err)
				}
				rec.Annotations = append(rec.Annotations, val.(ir.Object))
			}

		case recordKeySamples:
			items, ok := raw.([]any)
			if !ok {
				return Record{}, fmt.Errorf("record: %s must be a list, got %T", recordKeySamples, raw)
			}
			for i, item := range items {
				m, ok := item.(map[string]any)
				if !ok {
					return Record{}, fmt.Errorf("record: %s[%d] must be a mapping, got %T", recordKeySamples, i, item)
				}
				name, ok := m[genotypeKeyName].(string)
				if !ok || name == "" {
					return Record{}, fmt.Errorf("record: %s[%d] missing sample %s", recordKeySamples, i, genotypeKeyName)
				}
				fields := ir.Object{}
				for k, v := range m {
					if k == genotypeKeyName {
						continue
					}
					val, err := ir.FromGo(v)
					if err != nil {
						return Record{}, fmt.Errorf("record: %s[%d].%s: %w", recordKeySamples, i, k, err)
					}
					fields[k] = val
				}
				rec.Samples = append(rec.Samples, Genotype{Sample: name, Fields: fields})
			}

		default:
			val, err := ir.FromGo(raw)
			if err != nil {
				return Record{}, fmt.Errorf("record: field %q: %w", key, err)
			}
			rec.Fields[key] = val
		}
	}

	return rec, nil
}

// InsertRecords ingests logical records in input order: one variant row
// per record, one annotation row per attached annotation entry, one
// genotype row per attached per-sample entry. All inserts run in a
// single transaction; a failed record aborts the whole batch.
//
// After the first successful ingest the bootstrap "all" selection is
// materialized over the full variant table. Its count and membership
// are frozen at that moment.
//
// Every sample referenced by a record must already be registered.
func (s *Store) InsertRecords(ctx context.Context, records []Record) error {
	if s.catalog == nil {
		return fmt.Errorf("insert records: no field catalog loaded")
	}

	sampleIDs, err := s.SampleIDs(ctx)
	if err != nil {
		return fmt.Errorf("insert records: %w", err)
	}

	variantFields := s.catalog.ByCategory(catalog.CategoryVariant)
	annotationFields := s.catalog.ByCategory(catalog.CategoryAnnotation)
	sampleFields := s.catalog.ByCategory(catalog.CategorySample)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert records: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	insertVariant, err := tx.PrepareContext(ctx, insertSQL("variant", nil, variantFields))
	if err != nil {
		return fmt.Errorf("insert records: prepare variant: %w", err)
	}
	defer insertVariant.Close()

	insertAnnotation, err := tx.PrepareContext(ctx,
		insertSQL("annotation", []string{"variant_id"}, annotationFields))
	if err != nil {
		return fmt.Errorf("insert records: prepare annotation: %w", err)
	}
	defer insertAnnotation.Close()

	// One prepared statement per genotype table, created on first use.
	genotypeStmts := map[string]*sql.Stmt{}
	defer func() {
		for _, stmt := range genotypeStmts {
			stmt.Close()
		}
	}()

	for i, rec := range records {
		args, err := fieldArgs(rec.Fields, variantFields)
		if err != nil {
			return fmt.Errorf("insert records: record %d: %w", i, err)
		}
		result, err := insertVariant.ExecContext(ctx, args...)
		if err != nil {
			return fmt.Errorf("insert records: record %d: variant: %w", i, err)
		}
		variantID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert records: record %d: variant id: %w", i, err)
		}

		for j, ann := range rec.Annotations {
			args, err := fieldArgs(ann, annotationFields)
			if err != nil {
				return fmt.Errorf("insert records: record %d: annotation %d: %w", i, j, err)
			}
			args = append([]any{variantID}, args...)
			if _, err := insertAnnotation.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert records: record %d: annotation %d: %w", i, j, err)
			}
		}

		for _, gt := range rec.Samples {
			sampleID, ok := sampleIDs[gt.Sample]
			if !ok {
				return &NotFoundError{Kind: "sample", Name: gt.Sample}
			}

			stmt, ok := genotypeStmts[gt.Sample]
			if !ok {
				stmt, err = tx.PrepareContext(ctx,
					insertSQL(genotypeTable(gt.Sample), []string{"variant_id", "sample_id"}, sampleFields))
				if err != nil {
					return fmt.Errorf("insert records: record %d: prepare genotype %q: %w", i, gt.Sample, err)
				}
				genotypeStmts[gt.Sample] = stmt
			}

			args, err := fieldArgs(gt.Fields, sampleFields)
			if err != nil {
				return fmt.Errorf("insert records: record %d: genotype %q: %w", i, gt.Sample, err)
			}
			args = append([]any{variantID, sampleID}, args...)
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert records: record %d: genotype %q: %w", i, gt.Sample, err)
			}
		}
	}

	if err := ensureAllSelection(ctx, tx); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}

	runToken := uuid.Must(uuid.NewV7()).String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES ('last_import', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, runToken)
	if err != nil {
		return fmt.Errorf("insert records: run token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert records: commit: %w", err)
	}

	slog.Info("records ingested", "records", len(records), "run", runToken)
	return nil
}

// ensureAllSelection materializes the bootstrap "all" selection if it
// does not exist yet, covering every variant present at this moment.
func ensureAllSelection(ctx context.Context, tx *sql.Tx) error {
	var exists int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM selections WHERE name = 'all'`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("bootstrap selection: %w", err)
	}
	if exists > 0 {
		return nil
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO selections (name, count)
		SELECT 'all', COUNT(*) FROM variant
	`)
	if err != nil {
		return fmt.Errorf("bootstrap selection: insert: %w", err)
	}
	selectionID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("bootstrap selection: id: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO selection_has_variant (selection_id, variant_id)
		SELECT ?, id FROM variant
	`, selectionID)
	if err != nil {
		return fmt.Errorf("bootstrap selection: membership: %w", err)
	}
	return nil
}

// Metadata returns the value stored under a metadata key, or
// NotFoundError if the key is absent.
func (s *Store) Metadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", &NotFoundError{Kind: "metadata", Name: key}
	}
	if err != nil {
		return "", fmt.Errorf("metadata %q: %w", key, err)
	}
	return value, nil
}

// SetMetadata stores a metadata key/value pair, replacing any previous
// value.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}

// insertSQL builds an INSERT statement with the fixed columns first and
// the catalog columns after, in catalog order.
func insertSQL(table string, fixed []string, fields []catalog.Field) string {
	cols := make([]string, 0, len(fixed)+len(fields))
	cols = append(cols, fixed...)
	for _, f := range fields {
		cols = append(cols, "`"+f.Name+"`")
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	return "INSERT INTO `" + table + "` (" + strings.Join(cols, ",") + ") VALUES (" + placeholders + ")"
}

// fieldArgs extracts driver values for the given fields, in catalog
// order. Absent fields insert as NULL.
func fieldArgs(obj ir.Object, fields []catalog.Field) ([]any, error) {
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		val, ok := obj[f.Name]
		if !ok {
			args = append(args, nil)
			continue
		}
		native, err := ir.Native(val)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		args = append(args, native)
	}
	return args, nil
}
