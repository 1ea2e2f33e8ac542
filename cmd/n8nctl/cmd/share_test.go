package cmd

import (
	"fmt"
	"testing"
	"time"

	"github.com/n8n-tools/n8nctl/internal/share"
)

// slowTunnel starts fine but never reports a public URL.
type slowTunnel struct {
	stopped bool
}

func (t *slowTunnel) Start(port int) error { return nil }

func (t *slowTunnel) AwaitPublicURL(timeout time.Duration) (string, error) {
	return "", fmt.Errorf("timed out")
}

func (t *slowTunnel) Stop() error {
	t.stopped = true
	return nil
}

func overrideTunnel(t *testing.T, tunnel share.Tunnel, err error) {
	t.Helper()
	orig := newTunnelFunc
	newTunnelFunc = func() (share.Tunnel, error) { return tunnel, err }
	t.Cleanup(func() { newTunnelFunc = orig })
}

func TestStartTunnelMissingBinaryDegradesToLocal(t *testing.T) {
	shareTunnel = "cloudflare"
	defer func() { shareTunnel = "none" }()
	overrideTunnel(t, nil, share.ErrCloudflaredNotFound)

	tunnel, err := startTunnel(8765, "7.json")
	if err != nil {
		t.Fatalf("missing binary should not be an error, got %v", err)
	}
	if tunnel != nil {
		t.Error("expected no tunnel")
	}
}

func TestStartTunnelURLTimeoutDegradesToLocal(t *testing.T) {
	shareTunnel = "cloudflare"
	defer func() { shareTunnel = "none" }()
	slow := &slowTunnel{}
	overrideTunnel(t, slow, nil)

	tunnel, err := startTunnel(8765, "7.json")
	if err != nil {
		t.Fatalf("URL timeout should not abort the share, got %v", err)
	}
	if tunnel != nil {
		t.Error("expected no tunnel after timeout")
	}
	if !slow.stopped {
		t.Error("timed-out tunnel process was not stopped")
	}
}

func TestStartTunnelUnknownProvider(t *testing.T) {
	shareTunnel = "ngrok"
	defer func() { shareTunnel = "none" }()

	if _, err := startTunnel(8765, "7.json"); err == nil {
		t.Error("unknown provider should fail before the server runs long-lived")
	}
}

func TestStartTunnelNone(t *testing.T) {
	shareTunnel = "none"
	tunnel, err := startTunnel(8765, "7.json")
	if err != nil || tunnel != nil {
		t.Errorf("tunnel = %v, err = %v", tunnel, err)
	}
}
