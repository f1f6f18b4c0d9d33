package main

import (
	"os"

	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions <project>",
	Short: "List a project's uploaded versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersions,
}

func runVersions(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	versions, err := client.Versions(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return getFormatter().Versions(os.Stdout, args[0], versions)
}
