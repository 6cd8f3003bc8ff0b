package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/variantlab/varq/internal/store"
)

// WordsetInfo is the JSON shape of one word set summary.
type WordsetInfo struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// NewWordsetCommand creates the wordset command group.
func NewWordsetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wordset",
		Short: "Manage named word sets",
		Long: `Manage named word sets: value lists that filter documents reference
with {"$wordset": name} under $in and $nin.`,
	}

	cmd.AddCommand(newWordsetSetCommand(rootOpts))
	cmd.AddCommand(newWordsetListCommand(rootOpts))
	cmd.AddCommand(newWordsetShowCommand(rootOpts))
	cmd.AddCommand(newWordsetDropCommand(rootOpts))

	return cmd
}

func newWordsetSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <file>",
		Short: "Create or replace a word set from a file",
		Long: `Create or replace a word set from a file holding one value per line.
Values are normalized and deduplicated; blank lines are skipped.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWordsetSet(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runWordsetSet(opts *RootOptions, name, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	values, err := readLines(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read word set file", err)
	}

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer closeStore(st)

	ctx := cmdContext(cmd)
	if err := st.SetWordset(ctx, name, values); err != nil {
		_ = formatter.Error(ErrCodeExecFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to store word set", err)
	}

	stored, err := st.WordsetValues(ctx, name)
	if err != nil {
		_ = formatter.Error(ErrCodeExecFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to read back word set", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(WordsetInfo{Name: name, Count: int64(len(stored))})
	}
	fmt.Fprintf(formatter.Writer, "✓ Word set %q: %d value(s)\n", name, len(stored))
	return nil
}

func newWordsetListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List word sets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWordsetList(rootOpts, cmd)
		},
	}
}

func runWordsetList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer closeStore(st)

	wordsets, err := st.ListWordsets(cmdContext(cmd))
	if err != nil {
		_ = formatter.Error(ErrCodeExecFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to list word sets", err)
	}

	if formatter.Format == "json" {
		infos := make([]WordsetInfo, 0, len(wordsets))
		for _, ws := range wordsets {
			infos = append(infos, WordsetInfo{Name: ws.Name, Count: ws.Count})
		}
		return formatter.Success(infos)
	}
	fmt.Fprintln(formatter.Writer, "NAME\tCOUNT")
	for _, ws := range wordsets {
		fmt.Fprintf(formatter.Writer, "%s\t%d\n", ws.Name, ws.Count)
	}
	return nil
}

func newWordsetShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         "Print the values of a word set",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWordsetShow(rootOpts, args[0], cmd)
		},
	}
}

func runWordsetShow(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer closeStore(st)

	values, err := st.WordsetValues(cmdContext(cmd), name)
	if err != nil {
		code := ErrCodeExecFailed
		if store.IsNotFound(err) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read word set", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{"name": name, "values": values})
	}
	for _, value := range values {
		fmt.Fprintln(formatter.Writer, value)
	}
	return nil
}

func newWordsetDropCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "drop <name>",
		Short:         "Delete a word set",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWordsetDrop(rootOpts, args[0], cmd)
		},
	}
}

func runWordsetDrop(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer closeStore(st)

	if err := st.DropWordset(cmdContext(cmd), name); err != nil {
		code := ErrCodeExecFailed
		if store.IsNotFound(err) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to drop word set", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(map[string]string{"dropped": name})
	}
	fmt.Fprintf(formatter.Writer, "✓ Dropped word set %q\n", name)
	return nil
}

// readLines reads a file into its non-empty lines, in order.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
