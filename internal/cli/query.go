package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/variantlab/varq/internal/ir"
	"github.com/variantlab/varq/internal/store"
)

// QueryResult is the JSON payload of an executed query.
type QueryResult struct {
	SQL     string           `json:"sql"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <query.yaml>",
		Short: "Execute a query document",
		Long: `Compile a YAML query document and execute it against the database.

Text output prints one tab-separated row per variant; JSON output
carries the compiled SQL, the result labels, and the rows.

Example:
  varq query --db ./variants.db ./query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runQuery(opts *RootOptions, queryPath string, cmd *cobra.Command) error {
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

	res, err := st.RunQuery(cmdContext(cmd), q)
	if err != nil {
		code := ErrCodeExecFailed
		if store.IsNotFound(err) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, "query failed", err)
	}
	formatter.VerboseLog("SQL: %s", res.SQL)

	if formatter.Format == "json" {
		rows, err := rowObjects(res)
		if err != nil {
			_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
			return WrapExitError(ExitFailure, "query failed", err)
		}
		return formatter.Success(QueryResult{SQL: res.SQL, Columns: res.Columns, Rows: rows})
	}

	return printRows(formatter, res)
}

// printRows renders the result as a tab-separated table: a header of
// result labels, then one line per row.
func printRows(formatter *OutputFormatter, res *store.Result) error {
	w := formatter.Writer
	fmt.Fprintln(w, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		cells := make([]string, 0, len(res.Columns))
		cells = append(cells, fmt.Sprintf("%d", row.ID))
		for _, label := range res.Columns[1:] {
			cells = append(cells, formatCell(row.Fields[label]))
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(w, "%d row(s)\n", len(res.Rows))
	return nil
}

func formatCell(v ir.Value) string {
	switch val := v.(type) {
	case nil, ir.Null:
		return "NULL"
	case ir.Str:
		return string(val)
	default:
		nat, err := ir.Native(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return fmt.Sprintf("%v", nat)
	}
}

// rowObjects converts result rows to plain maps for JSON encoding.
func rowObjects(res *store.Result) ([]map[string]any, error) {
	rows := make([]map[string]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		obj := map[string]any{"id": row.ID}
		for label, v := range row.Fields {
			nat, err := ir.Native(v)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", label, err)
			}
			obj[label] = nat
		}
		rows = append(rows, obj)
	}
	return rows, nil
}
