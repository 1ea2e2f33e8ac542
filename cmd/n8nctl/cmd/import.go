package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/reconcile"
)

var importCmd = &cobra.Command{
	Use:   "import <file|url|bundle.zip>",
	Short: "Import workflows from a file, URL or zip bundle",
	Long: `Import workflows from a local JSON file, an HTTP(S) URL, or a zip
bundle produced by export --bundle.

With --upsert an existing workflow with the exact same name is updated in
place (after a backup snapshot) instead of creating a duplicate. URLs get a
retry schedule with DNS warm-up, so importing from a tunnel that is still
starting just works.

Examples:
  n8nctl import invoice.json                    # Create from a file
  n8nctl import invoice.json --upsert           # Update by name if it exists
  n8nctl import https://x.trycloudflare.com/wf-7.json
  n8nctl import workflows-bundle.zip --upsert   # Whole bundle
  n8nctl import invoice.json --name "Staging Copy"
  n8nctl import invoice.json --upsert --dry-run # Show what would happen`,
	Args: cobra.ExactArgs(1),
	RunE: runImportWorkflows,
}

var (
	importName    string
	importUpsert  bool
	importDryRun  bool
	importNoClean bool
)

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importName, "name", "", "Override the workflow name")
	importCmd.Flags().BoolVarP(&importUpsert, "upsert", "u", false, "Update an existing workflow with the same name")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Report intended actions without mutating anything")
	importCmd.Flags().BoolVar(&importNoClean, "no-clean", false, "Skip the clean transform")
}

func runImportWorkflows(cmd *cobra.Command, args []string) error {
	source := args[0]

	client, _, err := newClient()
	if err != nil {
		return err
	}
	r := reconcile.New(client)

	opts := reconcile.ImportOptions{
		Name:   importName,
		Upsert: importUpsert,
		DryRun: importDryRun,
		Clean:  !importNoClean,
	}

	if strings.HasSuffix(strings.ToLower(source), ".zip") {
		return importBundle(cmd, r, source, opts)
	}

	doc, err := reconcile.LoadSource(cmd.Context(), source)
	if err != nil {
		return err
	}

	result, err := r.ImportOne(cmd.Context(), doc, opts)
	if err != nil {
		return err
	}
	reportImport(result)
	return nil
}

func importBundle(cmd *cobra.Command, r *reconcile.Reconciler, zipPath string, opts reconcile.ImportOptions) error {
	items, err := r.ImportBundle(cmd.Context(), zipPath, opts)
	if err != nil {
		return err
	}

	imported := 0
	for _, item := range items {
		if item.Err != nil {
			fail("%s: %v", item.File, item.Err)
			continue
		}
		reportImport(item.Result)
		imported++
	}
	fmt.Printf("\nImported %d of %d entries\n", imported, len(items))
	if imported == 0 {
		return fmt.Errorf("no entry imported")
	}
	return nil
}

func reportImport(result reconcile.ImportResult) {
	switch result.Action {
	case reconcile.ActionCreated:
		success("created %q (id %s)", result.Name, result.ID)
	case reconcile.ActionUpdated:
		success("updated %q (id %s)", result.Name, result.ID)
	case reconcile.ActionWouldCreate:
		fmt.Printf("would create %q\n", result.Name)
	case reconcile.ActionWouldUpdate:
		fmt.Printf("would update %q (id %s)\n", result.Name, result.ID)
	}
	if result.BackupPath != "" {
		verbose("backup: %s", result.BackupPath)
	}
}
