package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/variantlab/varq/internal/queryir"
	"github.com/variantlab/varq/internal/store"
)

// ShellOptions holds flags for the shell command.
type ShellOptions struct {
	*RootOptions
	HistoryFile string
}

// NewShellCommand creates the shell command.
func NewShellCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShellOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive query shell",
		Long: `Start an interactive shell against a variant database.

Each input line is a query document in flow-style YAML (JSON works
too), compiled and executed immediately:

  varq> {fields: {variant: [chr, pos]}, filters: {pos: {$gt: 100}}}

Built-in commands start with a dot:
  .help         show this help
  .samples      list registered samples
  .selections   list selections
  .wordsets     list word sets
  .stats        print store statistics
  .exit         leave the shell`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.HistoryFile, "history", defaultHistoryFile(), "shell history file")

	return cmd
}

func defaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".varq_history")
	}
	return filepath.Join(home, ".varq_history")
}

func runShell(opts *ShellOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return err
	}
	defer closeStore(st)

	ctx := cmdContext(cmd)
	if _, err := st.LoadCatalog(ctx); err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitCommandError, "database not initialized", err)
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(opts.HistoryFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(opts.HistoryFile); err == nil {
			_, _ = line.WriteHistory(f)
			f.Close()
		}
	}()

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "varq shell. Type .help for commands, .exit to leave.")

	for {
		input, err := line.Prompt("varq> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(w)
				return nil
			}
			return WrapExitError(ExitCommandError, "failed to read input", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, ".") {
			if quit := runShellCommand(ctx, st, w, input); quit {
				return nil
			}
			continue
		}

		runShellQuery(ctx, st, formatter, input)
	}
}

// runShellCommand dispatches a dot command. Returns true to leave the
// shell.
func runShellCommand(ctx context.Context, st *store.Store, w io.Writer, input string) bool {
	switch input {
	case ".exit", ".quit":
		return true

	case ".help":
		fmt.Fprintln(w, "Enter a query document in flow-style YAML, e.g.")
		fmt.Fprintln(w, "  {fields: {variant: [chr, pos]}, filters: {pos: {$gt: 100}}}")
		fmt.Fprintln(w, "Commands: .help .samples .selections .wordsets .stats .exit")

	case ".samples":
		samples, err := st.ListSamples(ctx)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			return false
		}
		for _, smp := range samples {
			fmt.Fprintf(w, "%d\t%s\n", smp.ID, smp.Name)
		}

	case ".selections":
		selections, err := st.ListSelections(ctx)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			return false
		}
		for _, sel := range selections {
			fmt.Fprintf(w, "%s\t%d\n", sel.Name, sel.Count)
		}

	case ".wordsets":
		wordsets, err := st.ListWordsets(ctx)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			return false
		}
		for _, ws := range wordsets {
			fmt.Fprintf(w, "%s\t%d\n", ws.Name, ws.Count)
		}

	case ".stats":
		stats, err := st.Stats(ctx)
		if err != nil {
			fmt.Fprintf(w, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(w, "variants: %d, samples: %d, selections: %d, snvs: %d, ti/tv: %.2f\n",
			stats.Variants, stats.Samples, stats.Selections, stats.SNVs, stats.TiTvRatio)

	default:
		fmt.Fprintf(w, "unknown command %q, try .help\n", input)
	}
	return false
}

// runShellQuery parses one inline query document, runs it, and prints
// the result. Errors are printed, never fatal.
func runShellQuery(ctx context.Context, st *store.Store, formatter *OutputFormatter, input string) {
	q := queryir.NewQuery()
	if err := yaml.Unmarshal([]byte(input), &q); err != nil {
		fmt.Fprintf(formatter.Writer, "parse error: %v\n", err)
		return
	}

	res, err := st.RunQuery(ctx, q)
	if err != nil {
		fmt.Fprintf(formatter.Writer, "query error: %v\n", err)
		return
	}

	formatter.VerboseLog("SQL: %s", res.SQL)
	_ = printRows(formatter, res)
}
