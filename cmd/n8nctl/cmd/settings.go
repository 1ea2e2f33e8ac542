package cmd

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/n8n-tools/n8nctl/internal/api"
	"github.com/n8n-tools/n8nctl/internal/auth"
	"github.com/n8n-tools/n8nctl/internal/config"
	"github.com/n8n-tools/n8nctl/internal/envfile"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Configure credentials and profiles",
	Long: `Interactive settings: set credentials for the active profile, test
the connection, switch or create profiles, and set the UI base URL used for
webhook and browser links.`,
	RunE: runSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)
}

func runSettings(cmd *cobra.Command, args []string) error {
	for {
		cfg := config.Load()
		profile := cfg.Active()
		fmt.Printf("\nProfile: %s  URL: %s  Key: %s\n",
			nameColor.Sprint(cfg.ActiveProfile), valueOrUnset(profile.URL), maskKey(profile.Key))

		choice := ""
		prompt := &survey.Select{
			Message: "Settings:",
			Options: []string{
				"set credentials",
				"test connection",
				"switch profile",
				"set UI base URL",
				"export credentials to .env",
				"clear credentials",
				"back",
			},
		}
		if err := survey.AskOne(prompt, &choice); err != nil {
			return err
		}

		var err error
		switch choice {
		case "set credentials":
			err = setCredentials(cfg.ActiveProfile)
		case "test connection":
			err = testConnection()
		case "switch profile":
			err = switchProfile(cfg)
		case "set UI base URL":
			err = setUIBaseURL(cfg.ActiveProfile)
		case "export credentials to .env":
			err = exportEnvFile()
		case "clear credentials":
			err = config.SetCredentials(cfg.ActiveProfile, "", "")
			if err == nil {
				success("credentials cleared for profile %q", cfg.ActiveProfile)
			}
		case "back":
			return nil
		}
		if err != nil {
			fail("%v", err)
		}
	}
}

func setCredentials(profile string) error {
	url := ""
	if err := survey.AskOne(&survey.Input{Message: "n8n URL (e.g. https://n8n.example.com/api/v1):"}, &url); err != nil {
		return err
	}

	fmt.Print("API key: ")
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}

	if err := config.SetCredentials(profile, strings.TrimSpace(url), strings.TrimSpace(string(keyBytes))); err != nil {
		return err
	}
	success("credentials saved to profile %q", profile)
	return nil
}

func testConnection() error {
	creds, err := resolveCredentials()
	if err != nil {
		return err
	}
	client, err := api.NewClient(creds)
	if err != nil {
		return err
	}

	list, err := client.ListWorkflows()
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	success("connected to %s (%d workflow(s), credentials from %s)", creds.URL, len(list), creds.Source)
	return nil
}

func switchProfile(cfg *config.Config) error {
	options := make([]string, 0, len(cfg.Profiles)+1)
	for name := range cfg.Profiles {
		options = append(options, name)
	}
	options = append(options, "+ new profile")

	choice := ""
	prompt := &survey.Select{
		Message: "Profile:",
		Options: options,
		Default: cfg.ActiveProfile,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return err
	}

	if choice == "+ new profile" {
		if err := survey.AskOne(&survey.Input{Message: "Profile name:"}, &choice); err != nil {
			return err
		}
		choice = strings.TrimSpace(choice)
		if choice == "" {
			return fmt.Errorf("profile name cannot be empty")
		}
	}

	if _, err := config.SetActiveProfile(choice); err != nil {
		return err
	}
	success("active profile: %s", choice)
	return nil
}

// exportEnvFile writes the resolved credentials to ~/.n8nctl/.env so
// scripts and containers pick them up without a profile.
func exportEnvFile() error {
	creds, err := resolveCredentials()
	if err != nil {
		return err
	}
	if err := auth.Assert(creds); err != nil {
		return err
	}

	if existing := envfile.Get(auth.EnvURL); existing != "" && existing != creds.URL {
		confirmed := false
		confirm := &survey.Confirm{
			Message: fmt.Sprintf("Overwrite %s=%s in .env?", auth.EnvURL, existing),
			Default: false,
		}
		if err := survey.AskOne(confirm, &confirmed); err != nil {
			return err
		}
		if !confirmed {
			return nil
		}
	}

	if err := envfile.Set(auth.EnvURL, creds.URL); err != nil {
		return err
	}
	if err := envfile.Set(auth.EnvKey, creds.Key); err != nil {
		return err
	}
	success("credentials exported to .env (source: %s)", creds.Source)
	return nil
}

func setUIBaseURL(profile string) error {
	url := ""
	if err := survey.AskOne(&survey.Input{Message: "UI base URL (empty to derive from the API URL):"}, &url); err != nil {
		return err
	}
	if err := config.SetUIBaseURL(profile, strings.TrimSpace(url)); err != nil {
		return err
	}
	success("UI base URL saved to profile %q", profile)
	return nil
}

func valueOrUnset(s string) string {
	if s == "" {
		return dimColor.Sprint("(unset)")
	}
	return s
}

func maskKey(key string) string {
	if key == "" {
		return dimColor.Sprint("(unset)")
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}
