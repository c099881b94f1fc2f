package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thotsl4yer69/sentient-core/pkg/cli"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Show the working tier, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		list, err := env.eng.WorkingContext(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if flagOutput != "" {
			return output(list)
		}
		fmt.Println(cli.RenderContext(cli.NewStyles(cli.DefaultTheme), list))
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the working tier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		if err := env.eng.ClearWorking(cmd.Context()); err != nil {
			return err
		}
		cli.PrintSuccess("working tier cleared")
		return nil
	},
}

func init() {
	contextCmd.Flags().Int("limit", 0, "max entries (default: the working cap)")
	rootCmd.AddCommand(contextCmd, clearCmd)
}
