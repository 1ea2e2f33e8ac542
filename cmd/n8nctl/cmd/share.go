package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/n8n-tools/n8nctl/internal/share"
	"github.com/n8n-tools/n8nctl/internal/workflow"
)

var shareCmd = &cobra.Command{
	Use:   "share <workflow-id>",
	Short: "Serve a workflow's JSON for someone else to import",
	Long: `Serve one workflow's cleaned JSON over a local HTTP endpoint, and
optionally expose it publicly through a cloudflare quick tunnel.

The other side imports it directly:
  n8nctl import https://<tunnel-host>/<id>.json

The server runs until Ctrl-C; the tunnel process is torn down with it.

Examples:
  n8nctl share 42
  n8nctl share 42 --port 8088 --lan
  n8nctl share 42 --tunnel cloudflare`,
	Args: cobra.ExactArgs(1),
	RunE: runShareWorkflow,
}

var (
	sharePort    int
	shareLAN     bool
	shareTunnel  string
	shareNoClean bool
)

func init() {
	rootCmd.AddCommand(shareCmd)

	shareCmd.Flags().IntVar(&sharePort, "port", 8765, "Port to serve on")
	shareCmd.Flags().BoolVar(&shareLAN, "lan", false, "Bind all interfaces instead of loopback")
	shareCmd.Flags().StringVar(&shareTunnel, "tunnel", "none", "Tunnel provider: none, cloudflare")
	shareCmd.Flags().BoolVar(&shareNoClean, "no-clean", false, "Serve the document as-is")
}

func runShareWorkflow(cmd *cobra.Command, args []string) error {
	client, _, err := newClient()
	if err != nil {
		return err
	}

	doc, err := client.GetWorkflow(args[0])
	if err != nil {
		return fmt.Errorf("cannot fetch workflow %s: %w", args[0], err)
	}
	if !shareNoClean {
		doc = workflow.Clean(doc)
	}

	srv, err := share.NewServer(doc, args[0])
	if err != nil {
		return err
	}
	if err := srv.Start(sharePort, shareLAN); err != nil {
		return err
	}

	success("serving %q", doc.Name())
	fmt.Printf("  local: %s\n", srv.DocumentURL())

	tunnel, err := startTunnel(srv.Port(), srv.Filename())
	if err != nil {
		srv.Shutdown(context.Background())
		return err
	}

	fmt.Println("\nPress Ctrl-C to stop sharing.")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	// Tunnel first, listener second. An orphaned tunnel process would keep
	// the public URL alive pointing at nothing.
	if tunnel != nil {
		tunnel.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	srv.Shutdown(ctx)

	fmt.Println("\nStopped sharing.")
	return nil
}

// newTunnelFunc creates the cloudflare tunnel. Tests can override it.
var newTunnelFunc = func() (share.Tunnel, error) {
	return share.NewCloudflareTunnel()
}

// startTunnel spawns the requested tunnel. Any tunnel trouble (missing
// binary, spawn failure, no public URL in time) degrades to local-only
// sharing with a warning; the local server keeps running either way.
func startTunnel(port int, filename string) (share.Tunnel, error) {
	switch shareTunnel {
	case "none", "":
		return nil, nil
	case "cloudflare":
	default:
		return nil, fmt.Errorf("unknown tunnel provider: %s (use none or cloudflare)", shareTunnel)
	}

	tunnel, err := newTunnelFunc()
	if errors.Is(err, share.ErrCloudflaredNotFound) {
		warn("cloudflared not found; sharing on the local URL only")
		return nil, nil
	}
	if err != nil {
		warn("tunnel unavailable (%v); sharing on the local URL only", err)
		return nil, nil
	}

	if err := tunnel.Start(port); err != nil {
		warn("tunnel failed to start (%v); sharing on the local URL only", err)
		return nil, nil
	}

	url, err := tunnel.AwaitPublicURL(30 * time.Second)
	if err != nil {
		tunnel.Stop()
		warn("no public URL from the tunnel (%v); sharing on the local URL only", err)
		return nil, nil
	}
	fmt.Printf("  public: %s/%s\n", url, filename)
	return tunnel, nil
}
