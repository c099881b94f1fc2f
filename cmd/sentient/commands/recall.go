package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thotsl4yer69/sentient-core/pkg/cli"
	"github.com/thotsl4yer69/sentient-core/pkg/recall"
)

var recallCmd = &cobra.Command{
	Use:   "recall <query>",
	Short: "Semantic search over remembered exchanges",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		minSim, _ := cmd.Flags().GetFloat64("min-similarity")
		tags, _ := cmd.Flags().GetStringSlice("tags")

		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		hits, err := env.eng.Recall(cmd.Context(), recall.SearchQuery{
			Text:          args[0],
			Limit:         limit,
			MinSimilarity: recall.Floor(minSim),
			Tags:          tags,
		})
		if err != nil {
			return fmt.Errorf("recall: %w", err)
		}

		if flagOutput != "" {
			return output(hits)
		}
		fmt.Println(cli.RenderMemories(cli.NewStyles(cli.DefaultTheme), hits))
		return nil
	},
}

func init() {
	recallCmd.Flags().Int("limit", 5, "max results")
	recallCmd.Flags().Float64("min-similarity", 0.5, "similarity floor in [-1,1]; 0 keeps non-negative matches")
	recallCmd.Flags().StringSlice("tags", nil, "keep only records with at least one of these tags")
	rootCmd.AddCommand(recallCmd)
}
