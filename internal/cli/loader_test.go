package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/variantlab/varq/internal/catalog"
)

const demoProjectCUE = `
project: {
	name: "demo"
	samples: ["sacha"]
	fields: [
		{name: "chr", category: "variant", type: "str", description: "chromosome"},
		{name: "pos", category: "variant", type: "int", description: "position"},
		{name: "ref", category: "variant", type: "str"},
		{name: "alt", category: "variant", type: "str"},
		{name: "gene", category: "annotation", type: "str"},
		{name: "transcript", category: "annotation", type: "str"},
		{name: "gt", category: "sample", type: "int"},
		{name: "af", category: "sample", type: "float"},
	]
}
`

// writeProjectDir writes a CUE project definition into a fresh temp
// dir and returns the dir.
func writeProjectDir(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.cue"), []byte(body), 0o644))
	return dir
}

func TestLoadProject(t *testing.T) {
	dir := writeProjectDir(t, demoProjectCUE)

	proj, err := LoadProject(dir)
	require.NoError(t, err)

	assert.Equal(t, "demo", proj.Name)
	assert.Equal(t, []string{"sacha"}, proj.Samples)
	require.Len(t, proj.Fields, 8)
	assert.Equal(t, "chr", proj.Fields[0].Name)
	assert.Equal(t, catalog.CategoryVariant, proj.Fields[0].Category)
	assert.Equal(t, catalog.TypeStr, proj.Fields[0].Type)
	assert.Equal(t, "chromosome", proj.Fields[0].Description)
	assert.Equal(t, catalog.TypeFloat, proj.Fields[7].Type)
}

// Project definitions carry no package clause, so the loader has to
// feed the discovered files to CUE explicitly instead of loading the
// directory as a package.
func TestLoadProjectWithoutPackageClause(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "project.cue"),
		[]byte(`project: {name: "demo", samples: ["sacha"]}`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fields"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fields", "catalog.cue"),
		[]byte(`project: fields: [{name: "chr", category: "variant", type: "str"}]`), 0o644))

	proj, err := LoadProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "demo", proj.Name)
	require.Len(t, proj.Fields, 1)
	assert.Equal(t, "chr", proj.Fields[0].Name)
}

func TestLoadProjectDirectoryNotFound(t *testing.T) {
	_, err := LoadProject(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

func TestLoadProjectNoCUEFiles(t *testing.T) {
	_, err := LoadProject(t.TempDir())
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, ErrCodeLoadFailed, loadErr.Code)
	assert.Contains(t, loadErr.Message, "no CUE files")
}

func TestLoadProjectMissingProjectValue(t *testing.T) {
	dir := writeProjectDir(t, `other: {name: "x"}`)

	_, err := LoadProject(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no top-level "project" value`)
}

func TestLoadProjectValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing name",
			body:    `project: {samples: [], fields: [{name: "chr", category: "variant", type: "str"}]}`,
			wantErr: "project has no name",
		},
		{
			name:    "no fields",
			body:    `project: {name: "demo", samples: [], fields: []}`,
			wantErr: "project defines no fields",
		},
		{
			name:    "invalid category",
			body:    `project: {name: "demo", samples: [], fields: [{name: "chr", category: "genotype", type: "str"}]}`,
			wantErr: "invalid field catalog",
		},
		{
			name:    "duplicate sample",
			body:    `project: {name: "demo", samples: ["a", "a"], fields: [{name: "chr", category: "variant", type: "str"}]}`,
			wantErr: `duplicate sample name "a"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProject(writeProjectDir(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindCUEFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.cue"), []byte("x: 1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("not cue"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "c.cue"), []byte("y: 2"), 0o644))

	files, err := FindCUEFiles(dir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
