package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thotsl4yer69/sentient-core/pkg/cli"
	"github.com/thotsl4yer69/sentient-core/pkg/storage"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Export or import the durable tiers",
	Long: `Snapshots capture the episodic records (embeddings included) and the
core facts as portable files, one JSON line per record. The working tier
is transient and is not part of a snapshot.

Examples:
  sentient snapshot export --dir ./backup
  sentient snapshot import --dir ./backup`,
}

// snapshotStore resolves the snapshot root directory into a FileStore.
func snapshotStore(dir string) (storage.FileStore, error) {
	if dir == "" {
		paths, err := cli.NewPaths()
		if err != nil {
			return nil, err
		}
		dir = paths.SnapshotDir()
	}
	return storage.NewLocal(dir)
}

var snapshotExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export episodic records and core facts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		name, _ := cmd.Flags().GetString("name")

		fs, err := snapshotStore(dir)
		if err != nil {
			return err
		}
		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		info, err := env.eng.Export(cmd.Context(), fs, name)
		if err != nil {
			return err
		}
		cli.PrintSuccess("exported %d episodic records, %d core facts", info.Episodic, info.Core)
		return nil
	},
}

var snapshotImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a snapshot into the current database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		name, _ := cmd.Flags().GetString("name")

		fs, err := snapshotStore(dir)
		if err != nil {
			return err
		}
		env, err := openEngine(cmd)
		if err != nil {
			return err
		}
		defer env.close()

		info, err := env.eng.Import(cmd.Context(), fs, name)
		if err != nil {
			return fmt.Errorf("import: %w", err)
		}
		env.eng.FlushPending()
		cli.PrintSuccess("imported %d episodic records, %d core facts", info.Episodic, info.Core)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{snapshotExportCmd, snapshotImportCmd} {
		c.Flags().String("dir", "", "snapshot root directory (default ~/.sentient/snapshots)")
		c.Flags().String("name", "default", "snapshot name under the root")
	}
	snapshotCmd.AddCommand(snapshotExportCmd, snapshotImportCmd)
	rootCmd.AddCommand(snapshotCmd)
}
