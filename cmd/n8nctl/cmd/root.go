package cmd

import (
	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/api"
	"github.com/n8n-tools/n8nctl/internal/auth"
)

var version = "1.2.0"

var rootCmd = &cobra.Command{
	Use:   "n8nctl",
	Short: "n8nctl — manage n8n workflows from the terminal",
	Long: `n8nctl is a command-line client for n8n instances.

Features:
  • List, export, import, edit and delete workflows over the REST API
  • Upsert-by-name imports with dry-run and automatic pre-mutation backups
  • Zip bundles for moving whole collections between instances
  • Webhook invocation with body suggestions derived from the workflow graph
  • One-command sharing via a local server and an optional cloudflare tunnel

Credentials resolve per field: flags beat N8N_URL/N8N_API_KEY, which beat
the active profile in ~/.n8nctl/config.yaml.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Global flags
var (
	flagURL     string
	flagKey     string
	flagProfile string
	flagJSON    bool
	flagVerbose bool
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate("n8nctl version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "n8n API base URL (overrides env and profile)")
	rootCmd.PersistentFlags().StringVar(&flagKey, "key", "", "n8n API key (overrides env and profile)")
	rootCmd.PersistentFlags().StringVarP(&flagProfile, "profile", "p", "", "profile to use")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "raw JSON output where supported")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
}

// resolveCredentials merges flags, environment and the active profile.
func resolveCredentials() (auth.Credentials, error) {
	return auth.Resolve(auth.Flags{
		URL:     flagURL,
		Key:     flagKey,
		Profile: flagProfile,
	}, auth.EnvFromOS())
}

// newClient resolves credentials and returns a ready API client.
func newClient() (*api.Client, auth.Credentials, error) {
	creds, err := resolveCredentials()
	if err != nil {
		return nil, creds, err
	}
	client, err := api.NewClient(creds)
	if err != nil {
		return nil, creds, err
	}
	return client, creds, nil
}
