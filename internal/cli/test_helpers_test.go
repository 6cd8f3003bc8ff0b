package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/variantlab/varq/internal/store"
	"github.com/variantlab/varq/internal/testutil"
)

// newDemoDB creates an initialized database seeded with the demo
// records and returns its path.
func newDemoDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "varq.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, st.Close()) }()

	ctx := context.Background()
	require.NoError(t, st.CreateSchema(ctx, testutil.DemoRegistry()))
	for _, name := range testutil.DemoSampleNames() {
		_, err := st.RegisterSample(ctx, name)
		require.NoError(t, err)
	}

	records := make([]store.Record, 0, 3)
	for _, doc := range testutil.DemoRecordDocs() {
		rec, err := store.RecordFromGo(doc)
		require.NoError(t, err)
		records = append(records, rec)
	}
	require.NoError(t, st.InsertRecords(ctx, records))
	return path
}

// newEmptyDB creates an initialized database without any records.
func newEmptyDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "varq.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, st.Close()) }()

	ctx := context.Background()
	require.NoError(t, st.CreateSchema(ctx, testutil.DemoRegistry()))
	for _, name := range testutil.DemoSampleNames() {
		_, err := st.RegisterSample(ctx, name)
		require.NoError(t, err)
	}
	return path
}

// writeTempFile writes body to a file in a fresh temp dir and returns
// its path.
func writeTempFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// writeRecordsYAML writes the demo record documents as a YAML list.
func writeRecordsYAML(t *testing.T) string {
	t.Helper()
	data, err := yaml.Marshal(testutil.DemoRecordDocs())
	require.NoError(t, err)
	return writeTempFile(t, "records.yaml", string(data))
}
