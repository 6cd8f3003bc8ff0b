package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// StatsResult is the JSON shape of store statistics.
type StatsResult struct {
	Variants      int64   `json:"variants"`
	Samples       int64   `json:"samples"`
	Selections    int64   `json:"selections"`
	SNVs          int64   `json:"snvs"`
	Transitions   int64   `json:"transitions"`
	Transversions int64   `json:"transversions"`
	TiTvRatio     float64 `json:"ti_tv_ratio"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print store statistics",
		Long: `Print store statistics: variant, sample, and selection counts, plus
the transition/transversion signal over single-nucleotide variants.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(rootOpts, cmd)
		},
	}
}

func runStats(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := openStore(opts)
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

	stats, err := st.Stats(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeExecFailed, err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to compute statistics", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(StatsResult{
			Variants:      stats.Variants,
			Samples:       stats.Samples,
			Selections:    stats.Selections,
			SNVs:          stats.SNVs,
			Transitions:   stats.Transitions,
			Transversions: stats.Transversions,
			TiTvRatio:     stats.TiTvRatio,
		})
	}

	w := formatter.Writer
	fmt.Fprintf(w, "variants:      %d\n", stats.Variants)
	fmt.Fprintf(w, "samples:       %d\n", stats.Samples)
	fmt.Fprintf(w, "selections:    %d\n", stats.Selections)
	fmt.Fprintf(w, "snvs:          %d\n", stats.SNVs)
	fmt.Fprintf(w, "transitions:   %d\n", stats.Transitions)
	fmt.Fprintf(w, "transversions: %d\n", stats.Transversions)
	fmt.Fprintf(w, "ti/tv:         %.2f\n", stats.TiTvRatio)
	return nil
}
