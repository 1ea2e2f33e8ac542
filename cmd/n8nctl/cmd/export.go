package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/reconcile"
)

var exportCmd = &cobra.Command{
	Use:   "export [workflow-id]",
	Short: "Export workflows to JSON files",
	Long: `Export one workflow or the whole collection to JSON files.

Documents are cleaned by default: instance-specific fields (ids, timestamps,
execution state) are stripped so the files import cleanly elsewhere.

Examples:
  n8nctl export 42                      # One workflow into the current directory
  n8nctl export 42 -o invoice.json      # Explicit output file
  n8nctl export --all -o ./backup       # Everything into ./backup
  n8nctl export --all --bundle          # Everything plus a zip bundle
  n8nctl export 42 --no-clean           # Keep the document as-is`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExportWorkflows,
}

var (
	exportAll     bool
	exportOut     string
	exportBundle  bool
	exportNoClean bool
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().BoolVarP(&exportAll, "all", "a", false, "Export every workflow")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", ".", "Output file or directory")
	exportCmd.Flags().BoolVarP(&exportBundle, "bundle", "b", false, "Pack exported files into a zip bundle")
	exportCmd.Flags().BoolVar(&exportNoClean, "no-clean", false, "Skip the clean transform")
}

func runExportWorkflows(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}

	opts := reconcile.ExportOptions{
		All:    exportAll,
		Out:    exportOut,
		Clean:  !exportNoClean,
		Bundle: exportBundle,
	}
	if len(args) == 1 {
		opts.ID = args[0]
	}

	result, err := reconcile.New(client).Export(opts)
	if err != nil {
		return err
	}

	exported := 0
	for _, item := range result.Items {
		if item.Err != nil {
			fail("%s (%s): %v", item.Name, item.ID, item.Err)
			continue
		}
		success("%s → %s", item.Name, item.Path)
		exported++
	}

	if result.BundleErr != nil {
		warn("bundle failed (files kept): %v", result.BundleErr)
	} else if result.BundlePath != "" {
		success("bundle → %s", result.BundlePath)
	}

	if exported == 0 && len(result.Items) > 0 {
		return fmt.Errorf("no workflow exported")
	}
	fmt.Printf("\nExported %d of %d workflow(s)\n", exported, len(result.Items))
	return nil
}
