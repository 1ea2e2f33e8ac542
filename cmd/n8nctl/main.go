package main

import (
	"os"

	"github.com/n8n-tools/n8nctl/cmd/n8nctl/cmd"
	"github.com/n8n-tools/n8nctl/internal/envfile"
)

func main() {
	// Overlay ~/.n8nctl/.env before any command resolves credentials.
	// Real environment variables always win.
	envfile.Load()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
