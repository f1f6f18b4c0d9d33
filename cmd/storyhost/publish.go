package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/previewhq/storyhost/config"
)

var publishCmd = &cobra.Command{
	Use:   "publish [flags] <project> <archive.zip>",
	Short: "Upload an archive directly into the object store",
	Long: `Write a ZIP archive into the object store under the project's
canonical key and invalidate its cached index and alias resolution.

This bypasses the HTTP API and talks to the backends directly; use it on
the host that owns the store, or from CI with filesystem access.

Examples:
  # Publish the unversioned archive
  storyhost publish my-app ./storybook.zip

  # Publish a concrete version
  storyhost publish --version v1.4.0 my-app ./storybook.zip`,
	Args: cobra.ExactArgs(2),
	RunE: runPublish,
}

var publishVersion string

func init() {
	publishCmd.Flags().StringVar(&publishVersion, "version", "", "version directory to publish under (empty: unversioned)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	project, archivePath := args[0], args[1]

	svc, cleanup, err := initService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	f, err := os.Open(archivePath) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	info, err := svc.Publish(ctx, project, publishVersion, f)
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	slog.Info("published", "key", info.Key, "size", info.Size)
	return nil
}
