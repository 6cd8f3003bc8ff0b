package cli

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/variantlab/varq/internal/store"
)

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Workers int
}

// ImportResult summarizes an import run.
type ImportResult struct {
	Records int `json:"records"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import <records.yaml>",
		Short: "Import variant records from a YAML file",
		Long: `Import variant records into an initialized database.

Records are read from a YAML file (a list of record mappings, or a
multi-document stream), converted concurrently, and inserted in file
order through the single writer connection. Indexes are created after
the insert.

Example:
  varq import --db ./variants.db ./records.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", runtime.NumCPU(), "concurrent record conversion workers")

	return cmd
}

func runImport(opts *ImportOptions, recordsPath string, cmd *cobra.Command) error {
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

	docs, err := loadRecordDocs(recordsPath)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load records", err)
	}
	formatter.VerboseLog("Loaded %d record document(s) from %s", len(docs), recordsPath)

	records, err := prepareRecords(docs, opts.Workers)
	if err != nil {
		_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to convert records", err)
	}

	if err := st.InsertRecords(ctx, records); err != nil {
		_ = formatter.Error(ErrCodeExecFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to insert records", err)
	}

	if err := st.CreateIndexes(ctx); err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to create indexes", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(ImportResult{Records: len(records)})
	}
	fmt.Fprintf(formatter.Writer, "✓ Imported %d record(s)\n", len(records))
	return nil
}

// prepareRecords converts raw documents into records on a bounded
// worker pool. Conversion is CPU-bound and independent per document;
// results land at their document index, so file order survives into
// the single-writer insert.
func prepareRecords(docs []map[string]any, workers int) ([]store.Record, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	records := make([]store.Record, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i := range docs {
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			records[i], errs[i] = store.RecordFromGo(docs[i])
		}); err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}
