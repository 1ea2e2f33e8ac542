package cmd

import (
	"fmt"
	"net/http"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/history"
	"github.com/n8n-tools/n8nctl/internal/webhook"
	"github.com/n8n-tools/n8nctl/internal/workflow"
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <workflow-id>",
	Short: "Invoke a workflow's webhook trigger",
	Long: `Invoke a workflow through its webhook trigger node.

The workflow graph is inspected for enabled webhook nodes; when the trigger
feeds into a Set node, that node's assigned fields become the suggested
request body, pre-filled from the last invocation. The body can be edited
interactively before and between attempts.

Examples:
  n8nctl invoke 42
  n8nctl invoke 42 --test      # Hit the webhook-test endpoint`,
	Args: cobra.ExactArgs(1),
	RunE: runInvokeWorkflow,
}

var invokeTest bool

func init() {
	rootCmd.AddCommand(invokeCmd)

	invokeCmd.Flags().BoolVar(&invokeTest, "test", false, "Use the test endpoint (webhook-test)")
}

func runInvokeWorkflow(cmd *cobra.Command, args []string) error {
	id := args[0]

	client, creds, err := newClient()
	if err != nil {
		return err
	}

	doc, err := client.GetWorkflow(id)
	if err != nil {
		return fmt.Errorf("cannot fetch workflow %s: %w", id, err)
	}
	graph, err := doc.DecodeGraph()
	if err != nil {
		return err
	}

	entries := webhook.EntryPoints(graph)
	if len(entries) == 0 {
		fmt.Printf("Workflow %q has no enabled webhook trigger.\n", doc.Name())
		return nil
	}

	entry, err := chooseEntry(entries)
	if err != nil {
		return err
	}

	mode := webhook.ModeProduction
	if invokeTest {
		mode = webhook.ModeTest
	}
	target := webhook.ResolveTarget(entry, creds.DeriveUIBaseURL(), mode)

	store, err := history.Open()
	if err != nil {
		warn("invocation history unavailable: %v", err)
	} else {
		defer store.Close()
	}

	inv := webhook.NewInvoker(storeOrNil(store))

	var body map[string]any
	if target.Method != http.MethodGet {
		fields := webhook.SuggestedFields(graph, entry.Name)
		body = inv.DefaultBody(id, fields)
		body, err = editBody(body)
		if err != nil {
			return err
		}
	}

	for {
		fmt.Printf("\n%s %s\n", target.Method, target.URL)
		result, err := inv.Invoke(cmd.Context(), id, target, body)
		if err != nil {
			fail("invocation failed: %v", err)
		} else {
			httpStatusColor(result.Status).Printf("%d %s\n", result.Status, result.StatusText)
			if result.Body != "" {
				fmt.Println(result.Body)
			}
		}

		choice := ""
		prompt := &survey.Select{
			Message: "Next:",
			Options: []string{"done", "retry", "edit body and retry"},
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return err
		}
		switch choice {
		case "done":
			return nil
		case "edit body and retry":
			if target.Method == http.MethodGet {
				warn("GET invocations carry no body")
				continue
			}
			body, err = editBody(body)
			if err != nil {
				return err
			}
		}
	}
}

func storeOrNil(store *history.Store) webhook.BodyStore {
	if store == nil {
		return nil
	}
	return store
}

func chooseEntry(entries []workflow.Node) (*workflow.Node, error) {
	if len(entries) == 1 {
		return &entries[0], nil
	}

	options := make([]string, len(entries))
	for i, e := range entries {
		options[i] = e.Name
	}
	choice := ""
	prompt := &survey.Select{
		Message: "Multiple webhook triggers found. Which one?",
		Options: options,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Name == choice {
			return &entries[i], nil
		}
	}
	return &entries[0], nil
}
