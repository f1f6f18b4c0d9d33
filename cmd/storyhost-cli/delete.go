package main

import (
	"os"

	"github.com/spf13/cobra"
)

var deleteVersion string

var deleteCmd = &cobra.Command{
	Use:     "delete <project>",
	Aliases: []string{"rm"},
	Short:   "Delete a project's archive from the server",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	deleteCmd.Flags().StringVarP(&deleteVersion, "version", "V", "", "version token to delete")
}

func runDelete(cmd *cobra.Command, args []string) error {
	client, err := getClient()
	if err != nil {
		return err
	}

	if err := client.DeleteArchive(cmd.Context(), args[0], deleteVersion); err != nil {
		return err
	}

	target := args[0]
	if deleteVersion != "" {
		target += "/" + deleteVersion
	}
	return getFormatter().Message(os.Stdout, "deleted "+target)
}
