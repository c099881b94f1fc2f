package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/thotsl4yer69/sentient-core/pkg/cli"
	"github.com/thotsl4yer69/sentient-core/pkg/embed"
	"github.com/thotsl4yer69/sentient-core/pkg/kv"
	"github.com/thotsl4yer69/sentient-core/pkg/memory"
)

// engineSep keeps ':' usable inside fact keys and record IDs.
const engineSep byte = 0x1F

var (
	flagConfig  string
	flagContext string
	flagOutput  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "sentient",
	Short: "Tiered memory engine for a personal assistant",
	Long: `sentient - record, remember, and recall conversational exchanges.

Every stored exchange lands in a short-lived working tier; exchanges that
score high on the importance heuristics (or are stored with --force) are
also embedded and kept durably for semantic recall.

Configuration lives in ~/.sentient/config.yaml and supports multiple
contexts, similar to kubectl:

  sentient config set-context local --mock
  sentient config set-context prod --api-key sk-... --dimension 384
  sentient config use-context local

Examples:
  sentient store "My name is Jack and I love synthesizers" "Nice to meet you"
  sentient recall "what instruments does the user like?"
  sentient core set name '"Jack"'
  sentient stats`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.sentient/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&flagContext, "context", "c", "", "config context to use")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "output format: yaml or json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging")
}

// engineEnv bundles an opened engine with its cleanup.
type engineEnv struct {
	eng *memory.Engine
}

func (e *engineEnv) close() {
	if err := e.eng.Close(); err != nil {
		cli.PrintWarning("close store: %v", err)
	}
}

// openEngine resolves the active context, opens the badger database, and
// builds a loaded engine.
func openEngine(cmd *cobra.Command) (*engineEnv, error) {
	cfg, err := cli.LoadConfig(flagConfig)
	if err != nil {
		return nil, err
	}
	ctx, err := cfg.ResolveContext(flagContext)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	dataDir := ctx.DataDir
	if dataDir == "" {
		paths, err := cli.NewPaths()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		if err := paths.EnsureDataDir(); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dataDir = paths.DataDir()
	}
	store, err := kv.NewBadger(kv.BadgerOptions{
		Dir:     filepath.Join(dataDir, "db"),
		Options: &kv.Options{Separator: engineSep},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	embedder, err := newEmbedder(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}

	eng, err := memory.New(memory.Config{
		Store:    store,
		Embedder: embedder,
		Logger:   log,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := eng.Load(cmd.Context()); err != nil {
		// Search still works through the sequential fallback.
		cli.PrintWarning("vector cache load failed, falling back to sequential search: %v", err)
	}
	return &engineEnv{eng: eng}, nil
}

// newEmbedder picks the embedding provider for a context: the offline
// mock, or OpenAI-compatible with the context's credentials.
func newEmbedder(ctx *cli.Context) (embed.Embedder, error) {
	if ctx.MockEmbedder {
		dim := ctx.Dimension
		if dim == 0 {
			dim = 384
		}
		return embed.NewMock(dim), nil
	}

	apiKey := ctx.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key: set it with 'sentient config set-context', OPENAI_API_KEY, or use --mock")
	}
	var opts []embed.Option
	if ctx.Model != "" {
		opts = append(opts, embed.WithModel(ctx.Model))
	}
	if ctx.Dimension != 0 {
		opts = append(opts, embed.WithDimension(ctx.Dimension))
	}
	if ctx.BaseURL != "" {
		opts = append(opts, embed.WithBaseURL(ctx.BaseURL))
	}
	return embed.NewOpenAI(apiKey, opts...), nil
}

// output renders a structured result honoring the --output flag.
func output(result any) error {
	return cli.Output(nil, result, cli.OutputFormat(flagOutput))
}
