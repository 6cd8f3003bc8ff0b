package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `
name: sample
description: A minimal scenario.
samples:
  TUMOR: 1
cases:
  - name: page
    query:
      fields:
        variant: [chr]
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "sample", s.Name)
	assert.Equal(t, map[string]int64{"TUMOR": 1}, s.Samples)
	require.Len(t, s.Cases, 1)
	assert.Equal(t, "page", s.Cases[0].Name)
	assert.Equal(t, []string{"chr"}, s.Cases[0].Query.Query.Fields.Variant)
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenarioUnknownField(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: Unknown top-level key.
case:
  - name: page
    query: {}
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenarioValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "missing name",
			body: `
description: No name.
cases:
  - name: page
    query: {}
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			body: `
name: bare
cases:
  - name: page
    query: {}
`,
			wantErr: "description is required",
		},
		{
			name: "no cases",
			body: `
name: empty
description: No cases at all.
cases: []
`,
			wantErr: "cases list is required",
		},
		{
			name: "unnamed case",
			body: `
name: unnamed
description: Case without a name.
cases:
  - query: {}
`,
			wantErr: "cases[0]: name is required",
		},
		{
			name: "duplicate case name",
			body: `
name: dup
description: Two cases sharing a name.
cases:
  - name: page
    query: {}
  - name: page
    query: {}
`,
			wantErr: `cases[1]: duplicate case name "page"`,
		},
		{
			name: "missing query",
			body: `
name: noquery
description: Case without a query document.
cases:
  - name: page
`,
			wantErr: "cases[0]: query is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScenarioCompileUnknownSample(t *testing.T) {
	path := writeScenario(t, `
name: unknown
description: References a sample absent from the samples map.
cases:
  - name: missing
    query:
      fields:
        variant: [chr]
        sample:
          GHOST: [gt]
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)

	_, err = s.Compile()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `case "missing"`)
	assert.Contains(t, err.Error(), `unknown sample "GHOST"`)
}

func TestRenderCompiled(t *testing.T) {
	body := RenderCompiled([]CompiledCase{
		{Name: "a", SQL: "SELECT 1"},
		{Name: "b", SQL: "SELECT 2"},
	})
	assert.Equal(t, "-- a\nSELECT 1\n-- b\nSELECT 2\n", string(body))
}
