package main

import (
	"os"

	"github.com/previewhq/storyhost/clientcli"
	"github.com/spf13/cobra"
)

var publishVersion string

var publishCmd = &cobra.Command{
	Use:   "publish <project> <archive.zip>",
	Short: "Upload a storybook ZIP archive",
	Long: `Upload a storybook ZIP archive for a project.

Without --version the archive becomes the project's unversioned archive.
With --version it is stored under that version directory.

Examples:
  storyhost-cli publish acme dist/storybook.zip
  storyhost-cli publish acme dist/storybook.zip --version v2.1.0
  storyhost-cli publish acme dist/storybook.zip --version pr-42`,
	Args: cobra.ExactArgs(2),
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().StringVarP(&publishVersion, "version", "V", "", "version token to publish under")
}

func runPublish(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	result, err := client.Publish(cmd.Context(), clientcli.PublishOptions{
		Project:     args[0],
		Version:     publishVersion,
		ArchivePath: args[1],
	})
	if err != nil {
		return err
	}

	return getFormatter().PublishResult(os.Stdout, result)
}
