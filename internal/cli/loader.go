package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/variantlab/varq/internal/catalog"
)

// Project is a project definition loaded from CUE: the project name,
// the field catalog, and the sample names to register. The definition
// lives under the top-level "project" path:
//
//	project: {
//		name: "demo"
//		samples: ["sacha"]
//		fields: [
//			{name: "chr", category: "variant", type: "str", description: "chromosome"},
//		]
//	}
type Project struct {
	Name    string          `json:"name"`
	Fields  []catalog.Field `json:"fields"`
	Samples []string        `json:"samples"`
}

// LoadError represents an error that occurred during project loading.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadProject loads and validates a project definition from a directory
// of CUE files. The catalog fields go through the same registration
// rules the store enforces, so a project that loads cleanly also
// initializes cleanly.
func LoadProject(dir string) (*Project, error) {
	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("project directory not found: %s", dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing project directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	// Load CUE instances. The files are passed explicitly: directory
	// mode skips CUE files without a package clause, and project
	// definitions don't need one.
	args := make([]string, len(cueFiles))
	for i, f := range cueFiles {
		rel, err := filepath.Rel(dir, f)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("resolving %s: %v", f, err)}
		}
		args[i] = rel
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	projVal := value.LookupPath(cue.ParsePath("project"))
	if !projVal.Exists() {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: `no top-level "project" value found`}
	}

	var proj Project
	if err := projVal.Decode(&proj); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("decoding project: %v", err)}
	}

	if err := validateProject(&proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// validateProject checks the decoded definition before it reaches the
// store. Field validation runs through a throwaway registry so project
// errors and schema-creation errors agree.
func validateProject(p *Project) error {
	if p.Name == "" {
		return &LoadError{Code: ErrCodeLoadFailed, Message: "project has no name"}
	}
	if len(p.Fields) == 0 {
		return &LoadError{Code: ErrCodeLoadFailed, Message: "project defines no fields"}
	}

	reg := catalog.NewRegistry()
	if err := reg.Register(p.Fields...); err != nil {
		return &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("invalid field catalog: %v", err)}
	}

	seen := map[string]bool{}
	for _, name := range p.Samples {
		if name == "" {
			return &LoadError{Code: ErrCodeLoadFailed, Message: "empty sample name"}
		}
		if seen[name] {
			return &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("duplicate sample name %q", name)}
		}
		seen[name] = true
	}
	return nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
