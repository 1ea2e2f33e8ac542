package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/reconcile"
	"github.com/n8n-tools/n8nctl/internal/workflow"
)

var menuCmd = &cobra.Command{
	Use:     "menu",
	Aliases: []string{"ui"},
	Short:   "Interactive workflow browser",
	Long: `Browse workflows interactively: pick one with the arrow keys, then
choose an action. Favorites sort first. Running n8nctl with no arguments
opens the menu too.`,
	RunE: runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)

	// Bare `n8nctl` opens the menu.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runMenu(cmd, args)
	}
}

func runMenu(cmd *cobra.Command, args []string) error {
	for {
		client, _, err := newClient()
		if err != nil {
			return err
		}

		list, err := client.ListWorkflows()
		if err != nil {
			return fmt.Errorf("cannot list workflows: %w", err)
		}

		favorites := favoriteSet()
		sort.SliceStable(list, func(i, j int) bool {
			return favorites[list[i].ID] && !favorites[list[j].ID]
		})

		options := make([]string, 0, len(list)+2)
		for _, w := range list {
			options = append(options, menuLabel(w, favorites[w.ID]))
		}
		options = append(options, "⚙ settings", "quit")

		choice := ""
		prompt := &survey.Select{
			Message:  fmt.Sprintf("%d workflow(s):", len(list)),
			Options:  options,
			PageSize: 15,
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return err
		}

		switch choice {
		case "quit":
			return nil
		case "⚙ settings":
			if err := runSettings(cmd, nil); err != nil {
				fail("%v", err)
			}
			continue
		}

		selected, ok := summaryByLabel(list, favorites, choice)
		if !ok {
			continue
		}
		if err := workflowActions(cmd, selected); err != nil {
			fail("%v", err)
		}
	}
}

func menuLabel(w workflow.Summary, favorite bool) string {
	star := "  "
	if favorite {
		star = "★ "
	}
	return fmt.Sprintf("%s%s (%s, %s)", star, w.Name, w.ID, activeText(w.Active))
}

func activeText(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}

func summaryByLabel(list []workflow.Summary, favorites map[string]bool, label string) (workflow.Summary, bool) {
	for _, w := range list {
		if menuLabel(w, favorites[w.ID]) == label {
			return w, true
		}
	}
	return workflow.Summary{}, false
}

func workflowActions(cmd *cobra.Command, w workflow.Summary) error {
	action := ""
	prompt := &survey.Select{
		Message: fmt.Sprintf("%s:", w.Name),
		Options: []string{
			"invoke webhook",
			"export",
			"share",
			"open in browser",
			"save version",
			"toggle favorite",
			"edit",
			"delete",
			"back",
		},
	}
	if err := survey.AskOne(prompt, &action); err != nil {
		return err
	}

	switch action {
	case "invoke webhook":
		return runInvokeWorkflow(cmd, []string{w.ID})
	case "export":
		return runExportWorkflows(cmd, []string{w.ID})
	case "share":
		return runShareWorkflow(cmd, []string{w.ID})
	case "open in browser":
		return runOpenWorkflow(cmd, []string{w.ID})
	case "save version":
		return runSaveVersion(cmd, []string{w.ID})
	case "toggle favorite":
		return runFavorite(cmd, []string{w.ID})
	case "edit":
		return menuEdit(cmd, w)
	case "delete":
		return menuDelete(cmd, w)
	}
	return nil
}

func menuEdit(cmd *cobra.Command, w workflow.Summary) error {
	name := ""
	input := &survey.Input{
		Message: "New name (empty to keep):",
		Default: w.Name,
	}
	if err := survey.AskOne(input, &name); err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" || name == w.Name {
		fmt.Println("Nothing to change.")
		return nil
	}

	client, _, err := newClient()
	if err != nil {
		return err
	}
	result, err := reconcile.New(client).Edit(reconcile.EditOptions{ID: w.ID, Name: &name})
	if err != nil {
		return err
	}
	success("renamed to %q", name)
	verbose("backup: %s", result.BackupPath)
	return nil
}

func menuDelete(cmd *cobra.Command, w workflow.Summary) error {
	confirmed := false
	confirm := &survey.Confirm{
		Message: fmt.Sprintf("Delete %q (id %s)? A backup is taken first.", w.Name, w.ID),
		Default: false,
	}
	if err := survey.AskOne(confirm, &confirmed); err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	deleteName = ""
	deleteSearch = ""
	deleteDryRun = false
	return runDeleteWorkflows(cmd, []string{w.ID})
}
