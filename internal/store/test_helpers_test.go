package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/variantlab/varq/internal/testutil"
)

// newTestStore creates a store in a temp directory, closed on cleanup.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

// newDemoStore creates a store with the demo schema, samples, and
// records ingested.
func newDemoStore(t *testing.T) *Store {
	t.Helper()

	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSchema(ctx, testutil.DemoRegistry()))
	for _, name := range testutil.DemoSampleNames() {
		_, err := s.RegisterSample(ctx, name)
		require.NoError(t, err)
	}

	records := demoRecords(t)
	require.NoError(t, s.InsertRecords(ctx, records))

	return s
}

// demoRecords converts the demo record documents into Records.
func demoRecords(t *testing.T) []Record {
	t.Helper()

	var records []Record
	for _, doc := range testutil.DemoRecordDocs() {
		rec, err := RecordFromGo(doc)
		require.NoError(t, err)
		records = append(records, rec)
	}
	return records
}
