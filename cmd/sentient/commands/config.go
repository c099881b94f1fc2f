package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thotsl4yer69/sentient-core/pkg/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration contexts",
}

var configSetContextCmd = &cobra.Command{
	Use:   "set-context <name>",
	Short: "Create or update a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(flagConfig)
		if err != nil {
			return err
		}

		ctx := &cli.Context{}
		if existing, ok := cfg.Contexts[args[0]]; ok {
			*ctx = *existing
		}
		if v, _ := cmd.Flags().GetString("api-key"); v != "" {
			ctx.APIKey = v
		}
		if v, _ := cmd.Flags().GetString("base-url"); v != "" {
			ctx.BaseURL = v
		}
		if v, _ := cmd.Flags().GetString("model"); v != "" {
			ctx.Model = v
		}
		if v, _ := cmd.Flags().GetInt("dimension"); v != 0 {
			ctx.Dimension = v
		}
		if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
			ctx.DataDir = v
		}
		if cmd.Flags().Changed("mock") {
			ctx.MockEmbedder, _ = cmd.Flags().GetBool("mock")
		}

		if err := cfg.SetContext(args[0], ctx); err != nil {
			return err
		}
		cli.PrintSuccess("context %q saved", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Switch the active context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(flagConfig)
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("switched to %q", args[0])
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(flagConfig)
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		cli.PrintSuccess("deleted %q", args[0])
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Show all contexts (API keys masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig(flagConfig)
		if err != nil {
			return err
		}
		for _, name := range cfg.ListContexts() {
			ctx := cfg.Contexts[name]
			marker := " "
			if name == cfg.CurrentContext {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, name)
			if ctx.MockEmbedder {
				fmt.Println("    embedder: mock")
			} else if ctx.APIKey != "" {
				fmt.Printf("    api_key: %s\n", cli.MaskAPIKey(ctx.APIKey))
			}
			if ctx.BaseURL != "" {
				fmt.Printf("    base_url: %s\n", ctx.BaseURL)
			}
			if ctx.Model != "" {
				fmt.Printf("    model: %s\n", ctx.Model)
			}
			if ctx.Dimension != 0 {
				fmt.Printf("    dimension: %d\n", ctx.Dimension)
			}
			if ctx.DataDir != "" {
				fmt.Printf("    data_dir: %s\n", ctx.DataDir)
			}
		}
		return nil
	},
}

func init() {
	configSetContextCmd.Flags().String("api-key", "", "embedding provider API key")
	configSetContextCmd.Flags().String("base-url", "", "OpenAI-compatible endpoint override")
	configSetContextCmd.Flags().String("model", "", "embedding model name")
	configSetContextCmd.Flags().Int("dimension", 0, "embedding dimension")
	configSetContextCmd.Flags().String("data-dir", "", "database directory")
	configSetContextCmd.Flags().Bool("mock", false, "use the offline deterministic embedder")

	configCmd.AddCommand(configSetContextCmd, configUseContextCmd, configDeleteContextCmd, configViewCmd)
	rootCmd.AddCommand(configCmd)
}
