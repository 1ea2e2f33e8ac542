package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/backup"
)

var saveCmd = &cobra.Command{
	Use:   "save <workflow-id>",
	Short: "Save a local version snapshot of a workflow",
	Long: `Save the workflow's full document into the local versions directory,
keyed by its sanitized name.

Examples:
  n8nctl save 42
  n8nctl save 42 -m "before the big refactor"`,
	Args: cobra.ExactArgs(1),
	RunE: runSaveVersion,
}

var saveComment string

var versionsCmd = &cobra.Command{
	Use:   "versions <workflow-name>",
	Short: "List saved versions of a workflow",
	Long: `List locally saved versions of a workflow, newest first.

The name is matched after sanitization, so "Invoice Sync" and
"invoice_sync" find the same history.`,
	Args: cobra.ExactArgs(1),
	RunE: runListVersions,
}

func init() {
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(versionsCmd)

	saveCmd.Flags().StringVarP(&saveComment, "message", "m", "", "Comment stored with the version")
}

func runSaveVersion(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}

	doc, err := client.GetWorkflow(args[0])
	if err != nil {
		return fmt.Errorf("cannot fetch workflow %s: %w", args[0], err)
	}

	path, err := backup.SaveVersion(doc.Name(), saveComment, doc)
	if err != nil {
		return err
	}
	success("saved version of %q", doc.Name())
	verbose("path: %s", path)
	return nil
}

func runListVersions(cmd *cobra.Command, args []string) error {
	versions, err := backup.ListVersions(args[0])
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Printf("No saved versions for %q.\n", args[0])
		return nil
	}

	if flagJSON {
		return printJSON(versions)
	}

	for _, v := range versions {
		fmt.Printf("%s  %s\n", v.Name, dimColor.Sprint(humanize.Time(v.SavedAt)))
	}
	fmt.Printf("\n%d version(s)\n", len(versions))
	return nil
}
