package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thotsl4yer69/sentient-core/pkg/cli"
)

var storeCmd = &cobra.Command{
	Use:   "store <user-text> <assistant-text>",
	Short: "Record a conversational exchange",
	Long: `Record one exchange in the working tier and, when it scores high
enough on the importance heuristics (or --force is given), durably in the
episodic tier for semantic recall.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		res, err := env.eng.Store(cmd.Context(), args[0], args[1], force)
		if err != nil {
			return fmt.Errorf("store: %w", err)
		}
		env.eng.FlushPending()

		if res.EpisodicErr != nil {
			cli.PrintWarning("kept in working tier only: %v", res.EpisodicErr)
		}
		tier := "working"
		if res.StoredEpisodic {
			tier = "working + episodic"
		}
		cli.PrintSuccess("stored %s (importance %s, %s)",
			res.InteractionID, cli.FormatImportance(res.Importance), tier)
		return nil
	},
}

func init() {
	storeCmd.Flags().Bool("force", false, "store episodically regardless of importance")
	rootCmd.AddCommand(storeCmd)
}
