package store

import (
	"context"
	"fmt"

	"github.com/variantlab/varq/internal/catalog"
)

// Stats summarizes the store content: row counts plus the classic
// transition/transversion quality signal for single-nucleotide
// variants.
type Stats struct {
	Variants      int64
	Samples       int64
	Selections    int64
	SNVs          int64
	Transitions   int64
	Transversions int64
	TiTvRatio     float64
}

// transitions are the purine/purine and pyrimidine/pyrimidine
// substitutions. Every other single-base substitution is a
// transversion.
const transitionPairs = "('A','G'),('G','A'),('C','T'),('T','C')"

// Stats computes store statistics. The SNV and transition counts need
// "ref" and "alt" variant fields; when the catalog lacks them those
// counts stay zero.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM variant`).Scan(&stats.Variants); err != nil {
		return Stats{}, fmt.Errorf("stats: variants: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM samples`).Scan(&stats.Samples); err != nil {
		return Stats{}, fmt.Errorf("stats: samples: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM selections`).Scan(&stats.Selections); err != nil {
		return Stats{}, fmt.Errorf("stats: selections: %w", err)
	}

	if !s.hasRefAlt() {
		return stats, nil
	}

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM variant
		WHERE LENGTH(ref) = 1 AND LENGTH(alt) = 1
	`).Scan(&stats.SNVs); err != nil {
		return Stats{}, fmt.Errorf("stats: snvs: %w", err)
	}

	// Row-value IN needs SQLite 3.15+.
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM variant
		WHERE (ref, alt) IN (VALUES `+transitionPairs+`)
	`).Scan(&stats.Transitions); err != nil {
		return Stats{}, fmt.Errorf("stats: transitions: %w", err)
	}

	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM variant
		WHERE LENGTH(ref) = 1 AND LENGTH(alt) = 1
		  AND (ref, alt) NOT IN (VALUES `+transitionPairs+`)
	`).Scan(&stats.Transversions); err != nil {
		return Stats{}, fmt.Errorf("stats: transversions: %w", err)
	}

	if stats.Transversions > 0 {
		stats.TiTvRatio = float64(stats.Transitions) / float64(stats.Transversions)
	}
	return stats, nil
}

func (s *Store) hasRefAlt() bool {
	if s.catalog == nil {
		return false
	}
	_, hasRef := s.catalog.Lookup(catalog.CategoryVariant, "ref")
	_, hasAlt := s.catalog.Lookup(catalog.CategoryVariant, "alt")
	return hasRef && hasAlt
}
