package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var downloadVersion string

var downloadCmd = &cobra.Command{
	Use:   "download <project> <output.zip>",
	Short: "Download a project's raw archive",
	Long: `Download the stored ZIP archive for a project.

Without --version the unversioned archive is fetched.

Examples:
  storyhost-cli download acme ./storybook.zip
  storyhost-cli download acme ./storybook.zip --version v2.1.0`,
	Args: cobra.ExactArgs(2),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadVersion, "version", "V", "", "version token to download")
}

func runDownload(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	n, err := client.Download(cmd.Context(), args[0], downloadVersion, args[1])
	if err != nil {
		return err
	}

	return getFormatter().Message(os.Stdout, fmt.Sprintf("downloaded %s (%d bytes)", args[1], n))
}
