package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/previewhq/storyhost/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "storyhost",
	Short:   "Serve static sites directly out of remote ZIP archives",
	Long: `Storyhost serves static-site files straight from ZIP archives in an
object store, using partial range reads instead of unpacking. Archives are
addressed as {project}/{version}/storybook.zip; the "latest" alias resolves
to the newest upload.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if cf, _ := cmd.Flags().GetString("config"); cf != "" {
			files = []string{cf}
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)

		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("storage-type", "", "object store backend: filesystem, http (env: STORYHOST_STORAGE_TYPE)")
	rootCmd.PersistentFlags().String("storage-path", "", "filesystem store directory (env: STORYHOST_STORAGE_PATH)")
	rootCmd.PersistentFlags().String("storage-url", "", "http store base URL (env: STORYHOST_STORAGE_BASE_URL)")
	rootCmd.PersistentFlags().String("cache-type", "", "cache backend: memory, sqlite, postgres (env: STORYHOST_CACHE_TYPE)")
	rootCmd.PersistentFlags().String("cache-dsn", "", "cache connection string (env: STORYHOST_CACHE_DSN)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
