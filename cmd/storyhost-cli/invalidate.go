package main

import (
	"os"

	"github.com/spf13/cobra"
)

var invalidateVersion string

var invalidateCmd = &cobra.Command{
	Use:   "invalidate <project>",
	Short: "Drop cached index and alias entries for an archive",
	Long: `Drop the server's cached central-directory index and alias
resolution for a project's archive, forcing a rebuild on the next
request. Use after replacing an archive in the object store directly.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvalidate,
}

func init() {
	invalidateCmd.Flags().StringVarP(&invalidateVersion, "version", "V", "", "version token to invalidate")
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	if err := client.Invalidate(cmd.Context(), args[0], invalidateVersion); err != nil {
		return err
	}

	target := args[0]
	if invalidateVersion != "" {
		target += "/" + invalidateVersion
	}
	return getFormatter().Message(os.Stdout, "invalidated "+target)
}
