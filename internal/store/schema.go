package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/variantlab/varq/internal/catalog"
)

// CreateSchema builds the dynamic tables from the field catalog: the
// variant table (synthetic id plus one column per variant field) and the
// annotation table (variant foreign key plus one column per annotation
// field). The catalog itself is persisted into the fields table so a
// reopened store can rebuild it in registration order.
//
// Idempotent: tables are created IF NOT EXISTS and field rows are
// deduplicated by (category, name).
func (s *Store) CreateSchema(ctx context.Context, reg *catalog.Registry) error {
	if reg == nil || reg.Len() == 0 {
		return fmt.Errorf("create schema: empty field catalog")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create schema: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, f := range reg.Fields() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fields (name, category, type, description)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(category, name) DO NOTHING
		`, f.Name, string(f.Category), string(f.Type), f.Description)
		if err != nil {
			return fmt.Errorf("create schema: persist field %s: %w", f.Key(), err)
		}
	}

	variantCols, err := columnDefs(reg.ByCategory(catalog.CategoryVariant))
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	variantDDL := "CREATE TABLE IF NOT EXISTS variant (id INTEGER PRIMARY KEY"
	if len(variantCols) > 0 {
		variantDDL += "," + strings.Join(variantCols, ",")
	}
	variantDDL += ")"
	if _, err := tx.ExecContext(ctx, variantDDL); err != nil {
		return fmt.Errorf("create schema: variant table: %w", err)
	}

	annotationCols, err := columnDefs(reg.ByCategory(catalog.CategoryAnnotation))
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	annotationDDL := "CREATE TABLE IF NOT EXISTS annotation (" +
		"variant_id INTEGER NOT NULL REFERENCES variant (id)"
	if len(annotationCols) > 0 {
		annotationDDL += "," + strings.Join(annotationCols, ",")
	}
	annotationDDL += ")"
	if _, err := tx.ExecContext(ctx, annotationDDL); err != nil {
		return fmt.Errorf("create schema: annotation table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create schema: commit: %w", err)
	}

	s.catalog = reg
	slog.Info("schema created",
		"variant_fields", len(variantCols),
		"annotation_fields", len(annotationCols),
		"total_fields", reg.Len())
	return nil
}

// LoadCatalog rebuilds the field registry from the fields table, in the
// original registration order, and attaches it to the store. Used when
// reopening an existing database.
func (s *Store) LoadCatalog(ctx context.Context) (*catalog.Registry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, category, type, description
		FROM fields
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	reg := catalog.NewRegistry()
	for rows.Next() {
		var f catalog.Field
		var cat, typ string
		if err := rows.Scan(&f.Name, &cat, &typ, &f.Description); err != nil {
			return nil, fmt.Errorf("load catalog: scan: %w", err)
		}
		f.Category = catalog.Category(cat)
		f.Type = catalog.Type(typ)
		if err := reg.Register(f); err != nil {
			return nil, fmt.Errorf("load catalog: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: iterate: %w", err)
	}
	if reg.Len() == 0 {
		return nil, fmt.Errorf("load catalog: no fields registered, schema not created yet")
	}

	s.catalog = reg
	return reg, nil
}

// Sample is one registered sample with its pedigree attributes.
type Sample struct {
	ID        int64
	Name      string
	Fam       string
	FatherID  int64
	MotherID  int64
	Sex       int64
	Phenotype int64
}

// RegisterSample allocates a sample id and creates that sample's
// dedicated genotype table from the current sample-category fields. The
// table holds at most one row per variant and carries a constant
// sample_id column matching the allocated id, so compiled join
// predicates are executable as emitted.
//
// Sample names are NFC-normalized before they become part of a table
// name. Registering the same name twice returns the existing id.
func (s *Store) RegisterSample(ctx context.Context, name string) (int64, error) {
	name = norm.NFC.String(name)
	if err := validateSampleName(name); err != nil {
		return 0, fmt.Errorf("register sample: %w", err)
	}
	if s.catalog == nil {
		return 0, fmt.Errorf("register sample %q: no field catalog loaded", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("register sample %q: begin tx: %w", name, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO samples (name) VALUES (?)
		ON CONFLICT(name) DO NOTHING
	`, name)
	if err != nil {
		return 0, fmt.Errorf("register sample %q: insert: %w", name, err)
	}

	var id int64
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("register sample %q: rows affected: %w", name, err)
	}
	if affected > 0 {
		id, err = result.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("register sample %q: last insert id: %w", name, err)
		}
	} else {
		err = tx.QueryRowContext(ctx, `SELECT id FROM samples WHERE name = ?`, name).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("register sample %q: select existing: %w", name, err)
		}
	}

	cols, err := columnDefs(s.catalog.ByCategory(catalog.CategorySample))
	if err != nil {
		return 0, fmt.Errorf("register sample %q: %w", name, err)
	}
	ddl := "CREATE TABLE IF NOT EXISTS `" + genotypeTable(name) + "` (" +
		"variant_id INTEGER NOT NULL REFERENCES variant (id)," +
		"sample_id INTEGER NOT NULL"
	if len(cols) > 0 {
		ddl += "," + strings.Join(cols, ",")
	}
	ddl += ",PRIMARY KEY (variant_id)) WITHOUT ROWID"
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return 0, fmt.Errorf("register sample %q: genotype table: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("register sample %q: commit: %w", name, err)
	}

	slog.Info("sample registered", "name", name, "id", id)
	return id, nil
}

// SampleIDs returns the name to id map the SQL compiler needs to
// resolve sample joins.
func (s *Store) SampleIDs(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, id FROM samples`)
	if err != nil {
		return nil, fmt.Errorf("sample ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var name string
		var id int64
		if err := rows.Scan(&name, &id); err != nil {
			return nil, fmt.Errorf("sample ids: scan: %w", err)
		}
		ids[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sample ids: iterate: %w", err)
	}
	return ids, nil
}

// ListSamples returns every registered sample in id order.
func (s *Store) ListSamples(ctx context.Context) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, fam, father_id, mother_id, sex, phenotype
		FROM samples
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	samples := []Sample{}
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.ID, &smp.Name, &smp.Fam, &smp.FatherID,
			&smp.MotherID, &smp.Sex, &smp.Phenotype); err != nil {
			return nil, fmt.Errorf("list samples: scan: %w", err)
		}
		samples = append(samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list samples: iterate: %w", err)
	}
	return samples, nil
}

// UpdateSamplePedigree sets the pedigree columns of a named sample.
// Returns NotFoundError if the sample is not registered.
func (s *Store) UpdateSamplePedigree(ctx context.Context, smp Sample) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE samples
		SET fam = ?, father_id = ?, mother_id = ?, sex = ?, phenotype = ?
		WHERE name = ?
	`, smp.Fam, smp.FatherID, smp.MotherID, smp.Sex, smp.Phenotype, smp.Name)
	if err != nil {
		return fmt.Errorf("update pedigree for %q: %w", smp.Name, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update pedigree for %q: rows affected: %w", smp.Name, err)
	}
	if affected == 0 {
		return &NotFoundError{Kind: "sample", Name: smp.Name}
	}
	return nil
}

// CreateIndexes builds query indexes over the dynamic tables: every
// variant column, the annotation variant_id and gene columns, and each
// genotype table's sample_id. Meant to run once after a bulk import.
func (s *Store) CreateIndexes(ctx context.Context) error {
	if s.catalog == nil {
		return fmt.Errorf("create indexes: no field catalog loaded")
	}

	for _, f := range s.catalog.ByCategory(catalog.CategoryVariant) {
		ddl := fmt.Sprintf("CREATE INDEX IF NOT EXISTS `idx_variant_%s` ON variant (`%s`)", f.Name, f.Name)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create indexes: variant %s: %w", f.Name, err)
		}
	}

	if _, err := s.db.ExecContext(ctx,
		"CREATE INDEX IF NOT EXISTS idx_annotation_variant ON annotation (variant_id)"); err != nil {
		return fmt.Errorf("create indexes: annotation variant_id: %w", err)
	}
	if _, ok := s.catalog.Lookup(catalog.CategoryAnnotation, "gene"); ok {
		if _, err := s.db.ExecContext(ctx,
			"CREATE INDEX IF NOT EXISTS idx_annotation_gene ON annotation (`gene`)"); err != nil {
			return fmt.Errorf("create indexes: annotation gene: %w", err)
		}
	}

	samples, err := s.ListSamples(ctx)
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	for _, smp := range samples {
		ddl := fmt.Sprintf("CREATE INDEX IF NOT EXISTS `idx_%s_sample` ON `%s` (sample_id)",
			genotypeTable(smp.Name), genotypeTable(smp.Name))
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create indexes: sample %s: %w", smp.Name, err)
		}
	}

	return nil
}

// genotypeTable returns the dedicated genotype table name for a sample.
// Must match the alias the SQL compiler emits for sample joins.
func genotypeTable(name string) string {
	return "sample_" + name
}

func validateSampleName(name string) error {
	if name == "" {
		return fmt.Errorf("empty sample name")
	}
	if strings.ContainsAny(name, "`'\" \t\n") {
		return fmt.Errorf("invalid sample name %q", name)
	}
	return nil
}

// columnDefs renders CREATE TABLE column definitions for catalog fields.
func columnDefs(fields []catalog.Field) ([]string, error) {
	defs := make([]string, 0, len(fields))
	for _, f := range fields {
		sqlType, err := f.Type.SQLType()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Key(), err)
		}
		defs = append(defs, "`"+f.Name+"` "+sqlType)
	}
	return defs, nil
}

// tableExists reports whether a table is present in the database.
// Used for testing.
func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var got string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&got)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
