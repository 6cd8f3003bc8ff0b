package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runWordset executes one wordset subcommand against a database and
// returns its output.
func runWordset(t *testing.T, dbPath, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Database: dbPath, Format: format}
	cmd := NewWordsetCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestWordsetSetAndShow(t *testing.T) {
	dbPath := newDemoDB(t)
	valuesPath := writeTempFile(t, "genes.txt", "CFTR\nBRCA1\n\nCFTR\n")

	out, err := runWordset(t, dbPath, "text", "set", "genes", valuesPath)
	require.NoError(t, err)
	assert.Contains(t, out, `✓ Word set "genes": 2 value(s)`)

	out, err = runWordset(t, dbPath, "text", "show", "genes")
	require.NoError(t, err)
	assert.Contains(t, out, "BRCA1")
	assert.Contains(t, out, "CFTR")
}

func TestWordsetList(t *testing.T) {
	dbPath := newDemoDB(t)
	valuesPath := writeTempFile(t, "genes.txt", "CFTR\n")

	_, err := runWordset(t, dbPath, "text", "set", "genes", valuesPath)
	require.NoError(t, err)

	out, err := runWordset(t, dbPath, "text", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME\tCOUNT")
	assert.Contains(t, out, "genes\t1")
}

func TestWordsetDrop(t *testing.T) {
	dbPath := newDemoDB(t)
	valuesPath := writeTempFile(t, "genes.txt", "CFTR\n")

	_, err := runWordset(t, dbPath, "text", "set", "genes", valuesPath)
	require.NoError(t, err)

	out, err := runWordset(t, dbPath, "text", "drop", "genes")
	require.NoError(t, err)
	assert.Contains(t, out, `✓ Dropped word set "genes"`)

	_, err = runWordset(t, dbPath, "text", "show", "genes")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestWordsetShowUnknown(t *testing.T) {
	dbPath := newDemoDB(t)

	out, err := runWordset(t, dbPath, "text", "show", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E004]")
}

// The stored word set is usable from a query document via $wordset.
func TestWordsetDrivesQuery(t *testing.T) {
	dbPath := newDemoDB(t)
	valuesPath := writeTempFile(t, "genes.txt", "CFTR\n")

	_, err := runWordset(t, dbPath, "text", "set", "genes", valuesPath)
	require.NoError(t, err)

	queryPath := writeTempFile(t, "query.yaml", `
fields:
  variant: [chr]
filters:
  gene:
    $in:
      $wordset: genes
  $table: annotation
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Database: dbPath, Format: "text"}
	cmd := NewQueryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{queryPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "3 row(s)")
}
