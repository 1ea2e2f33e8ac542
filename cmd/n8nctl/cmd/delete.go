package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/reconcile"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [workflow-id]",
	Short: "Delete workflows (with an automatic backup first)",
	Long: `Delete workflows by id, exact name, or name substring.

One selector is required; running without any is an error, never a
delete-everything. Every target's full document is snapshotted to
~/.n8nctl/backups before the delete goes out.

Examples:
  n8nctl delete 42
  n8nctl delete --name "Invoice Sync"
  n8nctl delete --search staging --dry-run`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDeleteWorkflows,
}

var (
	deleteName   string
	deleteSearch string
	deleteDryRun bool
)

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().StringVar(&deleteName, "name", "", "Delete by exact name")
	deleteCmd.Flags().StringVar(&deleteSearch, "search", "", "Delete by name substring (case-insensitive)")
	deleteCmd.Flags().BoolVar(&deleteDryRun, "dry-run", false, "Show targets without deleting")
}

func runDeleteWorkflows(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}

	opts := reconcile.DeleteOptions{
		Name:   deleteName,
		Search: deleteSearch,
		DryRun: deleteDryRun,
	}
	if len(args) == 1 {
		opts.ID = args[0]
	}

	results, err := reconcile.New(client).Delete(opts)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matching workflows.")
		return nil
	}

	deleted := 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			fail("%s (%s): %v", r.Name, r.ID, r.Err)
		case r.Deleted:
			success("deleted %q (id %s)", r.Name, r.ID)
			verbose("backup: %s", r.BackupPath)
			deleted++
		default:
			fmt.Printf("would delete %q (id %s)\n", r.Name, r.ID)
		}
	}

	if deleteDryRun {
		fmt.Printf("\n%d workflow(s) would be deleted\n", len(results))
	} else {
		fmt.Printf("\nDeleted %d of %d workflow(s)\n", deleted, len(results))
	}
	return nil
}
