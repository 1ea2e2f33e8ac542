package cmd

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <workflow-id>",
	Short: "Open a workflow in the n8n editor",
	Long: `Print (and try to open in the default browser) the editor URL of a
workflow. The UI base URL comes from the profile when set, otherwise it is
derived from the API URL by stripping the /api/v1 suffix.`,
	Args: cobra.ExactArgs(1),
	RunE: runOpenWorkflow,
}

var openPrintOnly bool

func init() {
	rootCmd.AddCommand(openCmd)

	openCmd.Flags().BoolVar(&openPrintOnly, "print", false, "Print the URL without launching a browser")
}

func runOpenWorkflow(cmd *cobra.Command, args []string) error {
	creds, err := resolveCredentials()
	if err != nil {
		return err
	}

	base := creds.DeriveUIBaseURL()
	if base == "" {
		return fmt.Errorf("no URL configured; run 'n8nctl settings' first")
	}

	url := fmt.Sprintf("%s/workflow/%s", base, args[0])
	fmt.Println(url)

	if openPrintOnly {
		return nil
	}
	if err := openBrowser(url); err != nil {
		warn("could not launch a browser: %v", err)
	}
	return nil
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
