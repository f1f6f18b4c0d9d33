package main

import (
	"os"

	"github.com/previewhq/storyhost/clientcli"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	endpoint    string
	token       string
	profileName string
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:     "storyhost-cli",
	Version: version,
	Short:   "Client for storyhost archive hosting",
	Long: `storyhost-cli - client for the storyhost operational API

Publish storybook ZIP archives, list a project's versions, invalidate
cached archive indexes, and delete archives.

Connection settings come from profiles in ~/.storyhost/config.yaml,
environment variables (STORYHOST_ENDPOINT, STORYHOST_TOKEN,
STORYHOST_PROFILE), or flags. Flags win over environment, environment
wins over profiles.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "", "server URL (env: STORYHOST_ENDPOINT)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "bearer token (env: STORYHOST_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "p", "", "profile name (env: STORYHOST_PROFILE)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(invalidateCmd)
	rootCmd.AddCommand(deleteCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildConfig merges profile, environment and flag settings, flags last.
func buildConfig() (*clientcli.Config, error) {
	if profileName != "" {
		if err := os.Setenv(clientcli.EnvProfile, profileName); err != nil {
			return nil, err
		}
	}

	flagCfg := &clientcli.Config{
		Endpoint: endpoint,
		Token:    token,
	}

	// Flags alone may be enough; resolve profiles only when needed.
	if flagCfg.Endpoint != "" && flagCfg.Token != "" {
		return flagCfg, nil
	}

	resolved, err := clientcli.ResolveConfig()
	if err != nil {
		if flagCfg.Endpoint != "" {
			return flagCfg, nil
		}
		return nil, err
	}

	return clientcli.MergeConfig(resolved, flagCfg), nil
}

func getClient() (*clientcli.Client, error) {
	cfg, err := buildConfig()
	if err != nil {
		return nil, err
	}
	return clientcli.New(cfg)
}

func getFormatter() clientcli.Formatter {
	return clientcli.NewFormatter(jsonOutput)
}
