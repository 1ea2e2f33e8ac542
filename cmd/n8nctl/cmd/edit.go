package cmd

import (
	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/reconcile"
)

var editCmd = &cobra.Command{
	Use:   "edit <workflow-id>",
	Short: "Patch a workflow's name or active state",
	Long: `Patch top-level workflow fields. The full pre-edit document is
snapshotted before the update is sent.

Some n8n versions reject the active field on update; --compat-retry retries
once without it when the first attempt fails.

Examples:
  n8nctl edit 42 --name "Invoice Sync v2"
  n8nctl edit 42 --active=true
  n8nctl edit 42 --active=false --compat-retry
  n8nctl edit 42 --name X --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runEditWorkflow,
}

var (
	editName        string
	editActive      bool
	editDryRun      bool
	editCompatRetry bool
)

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringVar(&editName, "name", "", "New workflow name")
	editCmd.Flags().BoolVar(&editActive, "active", false, "New active state")
	editCmd.Flags().BoolVar(&editDryRun, "dry-run", false, "Show the patch without applying it")
	editCmd.Flags().BoolVar(&editCompatRetry, "compat-retry", false, "Retry once without the active field on failure")
}

func runEditWorkflow(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}

	opts := reconcile.EditOptions{
		ID:          args[0],
		DryRun:      editDryRun,
		CompatRetry: editCompatRetry,
	}
	if cmd.Flags().Changed("name") {
		opts.Name = &editName
	}
	if cmd.Flags().Changed("active") {
		opts.Active = &editActive
	}

	result, err := reconcile.New(client).Edit(opts)
	if err != nil {
		return err
	}

	if !result.Updated {
		success("dry-run: workflow %s would be updated", result.ID)
		return nil
	}
	success("updated workflow %s", result.ID)
	if result.RetriedNoActive {
		warn("server rejected the active field; applied the rest")
	}
	verbose("backup: %s", result.BackupPath)
	return nil
}
