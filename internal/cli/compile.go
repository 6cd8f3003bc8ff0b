package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// CompileResult holds the compiled SQL text.
type CompileResult struct {
	SQL string `json:"sql"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <query.yaml>",
		Short: "Compile a query document to SQL",
		Long: `Compile a YAML query document to SQL text without executing it.

Sample names in the query resolve against the database's sample table,
so the printed SQL is exactly what query execution and selection
materialization would run.

Example:
  varq compile --db ./variants.db ./query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompileQuery(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCompileQuery(opts *RootOptions, queryPath string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	q, err := loadQueryDoc(queryPath)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load query document", err)
	}

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer closeStore(st)

	ctx := cmdContext(cmd)
	comp, err := st.Compiler(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load sample map", err)
	}

	text, err := comp.CompileQuery(q)
	if err != nil {
		_ = formatter.Error(ErrCodeCompile, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to compile query", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(CompileResult{SQL: text})
	}
	fmt.Fprintln(formatter.Writer, text)
	return nil
}
