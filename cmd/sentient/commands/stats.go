package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thotsl4yer69/sentient-core/pkg/cli"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-tier counts and cache state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		stats, err := env.eng.Stats(cmd.Context())
		if err != nil {
			return err
		}
		if flagOutput != "" {
			return output(stats)
		}

		fmt.Printf("working   %d / %d entries (ttl %s)\n",
			stats.Working.Count, stats.Working.MaxSize, stats.Working.TTL)
		fmt.Printf("episodic  %d records (min importance %s)\n",
			stats.Episodic.Count, cli.FormatImportance(stats.Episodic.MinImportance))
		fmt.Printf("core      %d facts\n", stats.Core.Count)
		fmt.Printf("cache     %s, %d rows (%d pending), %s\n",
			stats.Cache.State, stats.Cache.Rows, stats.Cache.Pending,
			cli.FormatBytes(stats.Cache.SizeBytes))
		return nil
	},
}

var consolidateCmd = &cobra.Command{
	Use:   "consolidate",
	Short: "Run the read-only consolidation sweep",
	Long: `Group the last 24 hours of episodic records by tag and report the
counts. The sweep is purely observational: it never promotes, rewrites, or
deletes anything.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		report, err := env.eng.Consolidate(cmd.Context())
		if err != nil {
			return err
		}
		if report.Skipped {
			fmt.Printf("skipped: only %d recent records (need %d)\n", report.Total, 5)
			return nil
		}
		return output(report)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, consolidateCmd)
}
