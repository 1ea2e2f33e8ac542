package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/history"
	"github.com/n8n-tools/n8nctl/internal/workflow"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workflows on the n8n instance",
	Long: `List workflows on the n8n instance.

Examples:
  n8nctl list                     # All workflows
  n8nctl list --search invoice    # Name contains "invoice"
  n8nctl list --limit 10          # First 10 only
  n8nctl list --json              # Raw JSON for scripting`,
	RunE: runList,
}

var (
	listSearch string
	listLimit  int
)

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter by name substring (case-insensitive)")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "Maximum number of workflows to show")
}

func runList(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}

	list, err := client.ListWorkflows()
	if err != nil {
		return fmt.Errorf("cannot list workflows: %w", err)
	}

	if listSearch != "" {
		var filtered []workflow.Summary
		needle := strings.ToLower(listSearch)
		for _, w := range list {
			if strings.Contains(strings.ToLower(w.Name), needle) {
				filtered = append(filtered, w)
			}
		}
		list = filtered
	}
	if listLimit > 0 && len(list) > listLimit {
		list = list[:listLimit]
	}

	if flagJSON {
		return printJSON(list)
	}

	if len(list) == 0 {
		fmt.Println("No workflows found.")
		return nil
	}

	favorites := favoriteSet()
	for _, w := range list {
		star := " "
		if favorites[w.ID] {
			star = "★"
		}
		fmt.Printf("%s %-6s %-10s %s\n", star, w.ID, statusBadge(w.Active), nameColor.Sprint(w.Name))
	}
	fmt.Printf("\n%d workflow(s)\n", len(list))
	return nil
}

// favoriteSet loads the favorites as a lookup set. Store trouble degrades to
// no stars rather than failing the listing.
func favoriteSet() map[string]bool {
	set := make(map[string]bool)
	store, err := history.Open()
	if err != nil {
		return set
	}
	defer store.Close()

	ids, err := store.Favorites()
	if err != nil {
		return set
	}
	for _, id := range ids {
		set[id] = true
	}
	return set
}
