package share

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"time"
)

// Tunnel fronts a local share server with a public URL.
type Tunnel interface {
	Start(port int) error
	AwaitPublicURL(timeout time.Duration) (string, error)
	Stop() error
}

// ErrCloudflaredNotFound means no cloudflared binary could be resolved.
// Callers degrade to local-only sharing; this is a warning, not a failure.
var ErrCloudflaredNotFound = errors.New("cloudflared binary not found")

var tunnelURLPattern = regexp.MustCompile(`https://[\w-]+\.trycloudflare\.com`)

// cloudflaredCandidates are checked after PATH lookup fails. Homebrew and
// the official installer place the binary here.
var cloudflaredCandidates = []string{
	"/usr/local/bin/cloudflared",
	"/opt/homebrew/bin/cloudflared",
	"/usr/bin/cloudflared",
}

// ResolveCloudflared locates a runnable cloudflared binary.
func ResolveCloudflared() (string, error) {
	if path, err := exec.LookPath("cloudflared"); err == nil {
		return path, nil
	}
	for _, candidate := range cloudflaredCandidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", ErrCloudflaredNotFound
}

// CloudflareTunnel runs a quick cloudflared tunnel as a child process and
// scrapes its output for the assigned public hostname.
type CloudflareTunnel struct {
	Binary string

	cmd   *exec.Cmd
	urlCh chan string
}

// NewCloudflareTunnel resolves the binary and prepares a tunnel.
func NewCloudflareTunnel() (*CloudflareTunnel, error) {
	binary, err := ResolveCloudflared()
	if err != nil {
		return nil, err
	}
	return &CloudflareTunnel{Binary: binary}, nil
}

// Start spawns cloudflared pointed at the local port. cloudflared writes the
// assigned URL to stderr, so both output streams are scanned.
func (t *CloudflareTunnel) Start(port int) error {
	t.cmd = exec.Command(t.Binary, "tunnel", "--url", fmt.Sprintf("http://localhost:%d", port))

	stdout, err := t.cmd.StdoutPipe()
	if err != nil {
		return err
	}
	stderr, err := t.cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err := t.cmd.Start(); err != nil {
		return fmt.Errorf("start cloudflared: %w", err)
	}

	t.urlCh = make(chan string, 2)
	go scanForURL(stdout, t.urlCh)
	go scanForURL(stderr, t.urlCh)
	return nil
}

// AwaitPublicURL blocks until the tunnel reports its public URL or the
// timeout expires. The first match wins.
func (t *CloudflareTunnel) AwaitPublicURL(timeout time.Duration) (string, error) {
	select {
	case url := <-t.urlCh:
		return url, nil
	case <-time.After(timeout):
		return "", fmt.Errorf("tunnel did not report a public URL within %s", timeout)
	}
}

// Stop terminates the child process. Must run before the local listener
// closes so the tunnel is never left orphaned.
func (t *CloudflareTunnel) Stop() error {
	if t.cmd == nil || t.cmd.Process == nil {
		return nil
	}
	if err := t.cmd.Process.Kill(); err != nil {
		return err
	}
	t.cmd.Wait()
	return nil
}

// scanForURL reads lines and sends the first public tunnel URL it sees.
func scanForURL(r io.Reader, ch chan<- string) {
	scanner := bufio.NewScanner(r)
	sent := false
	for scanner.Scan() {
		if sent {
			continue
		}
		if url := tunnelURLPattern.FindString(scanner.Text()); url != "" {
			ch <- url
			sent = true
		}
	}
}
