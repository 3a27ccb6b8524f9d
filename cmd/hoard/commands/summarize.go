package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.trai.ch/hoard/internal/core/domain"
)

// DefaultSummaryPeriod is the window summarized when --period is not given.
const DefaultSummaryPeriod = 24 * time.Hour

func (c *CLI) newSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize recorded query performance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			period, _ := cmd.Flags().GetDuration("period")
			asJSON, _ := cmd.Flags().GetBool("json")

			summary, err := c.app.Summarize(cmd.Context(), period)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			printSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}
	cmd.Flags().DurationP("period", "p", DefaultSummaryPeriod, "Window of samples to summarize")
	cmd.Flags().Bool("json", false, "Print the summary as JSON")
	return cmd
}

func printSummary(w io.Writer, s domain.PerformanceSummary) {
	_, _ = fmt.Fprintf(w, "period:          %s\n", s.Period)
	_, _ = fmt.Fprintf(w, "queries:         %d\n", s.TotalQueries)
	_, _ = fmt.Fprintf(w, "avg latency:     %s\n", s.AvgLatency)
	_, _ = fmt.Fprintf(w, "slow queries:    %d\n", s.SlowQueryCount)
	_, _ = fmt.Fprintf(w, "cache hit rate:  %.1f%%\n", s.CacheHitRate*100)
	if len(s.TopSlowQueries) == 0 {
		return
	}
	_, _ = fmt.Fprintln(w, "slowest:")
	for _, q := range s.TopSlowQueries {
		_, _ = fmt.Fprintf(w, "  %-12s %-10s %s\n", q.Latency, q.Collection, q.Description)
	}
}
