package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/variantlab/varq/internal/catalog"
)

// InitResult summarizes a database initialization.
type InitResult struct {
	Project string `json:"project"`
	Fields  int    `json:"fields"`
	Samples int    `json:"samples"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <project-dir>",
		Short: "Initialize a database from a CUE project",
		Long: `Initialize a variant database from a CUE project definition.

The project defines the field catalog (variant, annotation, and sample
fields) and the sample names. Initialization creates the variant and
annotation tables from the catalog and a dedicated genotype table per
sample.

Example:
  varq init --db ./variants.db ./project`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runInit(opts *RootOptions, projectDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	proj, err := LoadProject(projectDir)
	if err != nil {
		code := ErrCodeLoadFailed
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load project", err)
	}
	formatter.VerboseLog("Loaded project %q: %d field(s), %d sample(s)", proj.Name, len(proj.Fields), len(proj.Samples))

	reg := catalog.NewRegistry()
	if err := reg.Register(proj.Fields...); err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid field catalog", err)
	}

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer closeStore(st)

	ctx := cmdContext(cmd)
	if err := st.CreateSchema(ctx, reg); err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to create schema", err)
	}

	for _, name := range proj.Samples {
		id, err := st.RegisterSample(ctx, name)
		if err != nil {
			_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to register sample %q", name), err)
		}
		slog.Debug("sample registered", "name", name, "id", id)
	}

	if err := st.SetMetadata(ctx, "project", proj.Name); err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to record project name", err)
	}

	result := InitResult{Project: proj.Name, Fields: len(proj.Fields), Samples: len(proj.Samples)}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Initialized project %q: %d field(s), %d sample(s)\n",
		result.Project, result.Fields, result.Samples)
	return nil
}
