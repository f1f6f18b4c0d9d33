package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/previewhq/storyhost"
	"github.com/previewhq/storyhost/config"
)

var invalidateCmd = &cobra.Command{
	Use:   "invalidate <project> [version]",
	Short: "Drop cached state for an archive",
	Long: `Drop the cached central-directory index and alias resolution for
one archive. The next request rebuilds both from the object store.

Use this after replacing an archive out-of-band; publishing through
storyhost invalidates automatically.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInvalidate,
}

func init() {
	rootCmd.AddCommand(invalidateCmd)
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	project := args[0]
	version := ""
	if len(args) == 2 {
		version = args[1]
	}

	if !storyhost.IsValidProject(project) {
		return fmt.Errorf("invalid project name: %s", project)
	}

	svc, cleanup, err := initService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	key := storyhost.ArchiveKey(project, version)
	svc.InvalidateArchive(ctx, key)

	slog.Info("invalidated", "key", key)
	return nil
}
