package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/variantlab/varq/internal/queryir"
	"github.com/variantlab/varq/internal/querysql"
	"github.com/variantlab/varq/internal/store"
)

// SelectionInfo is the JSON shape of one selection.
type SelectionInfo struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// NewSelectionCommand creates the selection command group.
func NewSelectionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "selection",
		Short: "Manage named variant selections",
		Long: `Manage named selections: materialized, immutable sets of variant
identities built from query results or from set algebra over existing
selections.`,
	}

	cmd.AddCommand(newSelectionListCommand(rootOpts))
	cmd.AddCommand(newSelectionCreateCommand(rootOpts))
	cmd.AddCommand(newSelectionCombineCommand(rootOpts))
	cmd.AddCommand(newSelectionDropCommand(rootOpts))

	return cmd
}

func newSelectionListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List selections",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelectionList(rootOpts, cmd)
		},
	}
}

func runSelectionList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer closeStore(st)

	selections, err := st.ListSelections(cmdContext(cmd))
	if err != nil {
		_ = formatter.Error(ErrCodeExecFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to list selections", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(selectionInfos(selections))
	}
	fmt.Fprintln(formatter.Writer, "NAME\tCOUNT")
	for _, sel := range selections {
		fmt.Fprintf(formatter.Writer, "%s\t%d\n", sel.Name, sel.Count)
	}
	return nil
}

func newSelectionCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> <query.yaml>",
		Short: "Materialize a selection from a query",
		Long: `Compile a query document and materialize its matching variant
identities as a named selection. The selection is frozen at creation:
later imports do not change it.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelectionCreate(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runSelectionCreate(opts *RootOptions, name, queryPath string, cmd *cobra.Command) error {
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
	formatter.VerboseLog("SQL: %s", text)

	sel, err := st.Materialize(ctx, name, text)
	if err != nil {
		_ = formatter.Error(ErrCodeExecFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to materialize selection", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(SelectionInfo{ID: sel.ID, Name: sel.Name, Count: sel.Count})
	}
	fmt.Fprintf(formatter.Writer, "✓ Selection %q: %d variant(s)\n", sel.Name, sel.Count)
	return nil
}

func newSelectionCombineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "combine <name> <union|intersect|except> <a> <b>",
		Short: "Combine two selections with set algebra",
		Long: `Materialize a new selection from the set combination of two existing
selections. "except" keeps the identities in the first selection that
are absent from the second.`,
		Args:          cobra.ExactArgs(4),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelectionCombine(rootOpts, args[0], args[1], args[2], args[3], cmd)
		},
	}
}

func runSelectionCombine(opts *RootOptions, name, op, a, b string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer closeStore(st)

	ctx := cmdContext(cmd)
	for _, src := range []string{a, b} {
		if _, err := st.SelectionByName(ctx, src); err != nil {
			code := ErrCodeExecFailed
			if store.IsNotFound(err) {
				code = ErrCodeNotFound
			}
			_ = formatter.Error(code, err.Error(), nil)
			return WrapExitError(ExitCommandError, "unknown selection operand", err)
		}
	}

	comp, err := st.Compiler(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load sample map", err)
	}

	// Each operand compiles to the full identity set of its selection;
	// Limit zero keeps paging out of set algebra.
	textA, err := comp.CompileQuery(queryir.Query{Source: a})
	if err != nil {
		_ = formatter.Error(ErrCodeCompile, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to compile operand", err)
	}
	textB, err := comp.CompileQuery(queryir.Query{Source: b})
	if err != nil {
		_ = formatter.Error(ErrCodeCompile, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to compile operand", err)
	}

	combined, err := querysql.Combine(querysql.SetOp(op), textA, textB)
	if err != nil {
		_ = formatter.Error(ErrCodeCompile, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid set operation", err)
	}
	formatter.VerboseLog("SQL: %s", combined)

	sel, err := st.Materialize(ctx, name, combined)
	if err != nil {
		_ = formatter.Error(ErrCodeExecFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to materialize selection", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(SelectionInfo{ID: sel.ID, Name: sel.Name, Count: sel.Count})
	}
	fmt.Fprintf(formatter.Writer, "✓ Selection %q: %d variant(s)\n", sel.Name, sel.Count)
	return nil
}

func newSelectionDropCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "drop <name>",
		Short:         "Delete a selection",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelectionDrop(rootOpts, args[0], cmd)
		},
	}
}

func runSelectionDrop(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer closeStore(st)

	if err := st.DropSelection(cmdContext(cmd), name); err != nil {
		code := ErrCodeExecFailed
		if store.IsNotFound(err) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to drop selection", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"dropped": name})
	}
	fmt.Fprintf(formatter.Writer, "✓ Dropped selection %q\n", name)
	return nil
}

func selectionInfos(selections []store.Selection) []SelectionInfo {
	infos := make([]SelectionInfo, 0, len(selections))
	for _, sel := range selections {
		infos = append(infos, SelectionInfo{ID: sel.ID, Name: sel.Name, Count: sel.Count})
	}
	return infos
}
