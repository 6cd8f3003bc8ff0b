package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCommand(t *testing.T) {
	dbPath := newDemoDB(t)
	queryPath := writeTempFile(t, "query.yaml", `
fields:
  variant: [chr, pos]
order_by:
  variant: [chr]
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Database: dbPath, Format: "text"}
	cmd := NewQueryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{queryPath})

	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5) // header + 3 rows + count
	assert.Equal(t, "id\tchr\tpos", lines[0])
	assert.Contains(t, lines[1], "11\t125010")
	assert.Contains(t, lines[2], "12\t125010")
	assert.Contains(t, lines[3], "13\t125010")
	assert.Equal(t, "3 row(s)", lines[4])
}

func TestQueryCommandFiltered(t *testing.T) {
	dbPath := newDemoDB(t)
	queryPath := writeTempFile(t, "query.yaml", `
fields:
  variant: [chr]
filters:
  chr: "12"
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Database: dbPath, Format: "text"}
	cmd := NewQueryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{queryPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "1 row(s)")
	assert.Contains(t, buf.String(), "12")
}

func TestQueryCommandJSON(t *testing.T) {
	dbPath := newDemoDB(t)
	queryPath := writeTempFile(t, "query.yaml", `
fields:
  variant: [chr, pos]
  annotation: [gene]
limit: 1
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Database: dbPath, Format: "json"}
	cmd := NewQueryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{queryPath})

	require.NoError(t, cmd.Execute())

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"id", "chr", "pos", "gene"}, data["columns"])

	rows, ok := data["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row := rows[0].(map[string]any)
	assert.Equal(t, "CFTR", row["gene"])
}

func TestQueryCommandUnknownSelection(t *testing.T) {
	dbPath := newDemoDB(t)
	queryPath := writeTempFile(t, "query.yaml", `
fields:
  variant: [chr]
source: nope
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Database: dbPath, Format: "text"}
	cmd := NewQueryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{queryPath})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "Error [E004]")
}

func TestQueryCommandRegex(t *testing.T) {
	dbPath := newDemoDB(t)
	queryPath := writeTempFile(t, "query.yaml", `
fields:
  variant: [chr]
filters:
  chr:
    $regex: "^1[12]$"
`)

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Database: dbPath, Format: "text"}
	cmd := NewQueryCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{queryPath})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "2 row(s)")
}
