package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thotsl4yer69/sentient-core/pkg/cli"
)

var coreCmd = &cobra.Command{
	Use:   "core",
	Short: "Manage durable core facts",
	Long: `Core facts are a small curated key → JSON mapping with no expiry,
updated only by explicit commands, never by the importance heuristics.

Examples:
  sentient core set name '"Jack"'
  sentient core set preferences.music '["synthwave","ambient"]'
  sentient core get name
  sentient core get
  sentient core delete name`,
}

var coreSetCmd = &cobra.Command{
	Use:   "set <key> <value-json>",
	Short: "Set a core fact (value is JSON)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var value any
		if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
			return fmt.Errorf("invalid value JSON: %w", err)
		}

		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		if err := env.eng.CoreSet(cmd.Context(), args[0], value); err != nil {
			return err
		}
		cli.PrintSuccess("set %s", args[0])
		return nil
	},
}

var coreGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get one core fact, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		if len(args) == 0 {
			all, err := env.eng.CoreAll(cmd.Context())
			if err != nil {
				return err
			}
			return output(all)
		}
		v, err := env.eng.CoreGet(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return output(v)
	},
}

var coreDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a core fact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		if err := env.eng.CoreDelete(cmd.Context(), args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("deleted %s", args[0])
		return nil
	},
}

func init() {
	coreCmd.AddCommand(coreSetCmd, coreGetCmd, coreDeleteCmd)
	rootCmd.AddCommand(coreCmd)
}
