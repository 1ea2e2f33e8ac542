// Package reconcile orchestrates workflow import and export against the
// remote collection: sourcing from files, URLs and zip bundles, normalizing,
// and upsert-by-name reconciliation with dry-run support.
package reconcile

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/n8n-tools/n8nctl/internal/workflow"
)

// retrySchedule is the fixed backoff applied to source downloads. Imports
// frequently point at a tunnel endpoint that is still warming up, so the
// early retries are cheap and the later ones patient.
var retrySchedule = []time.Duration{
	0,
	250 * time.Millisecond,
	600 * time.Millisecond,
	1 * time.Second,
	1600 * time.Millisecond,
	2400 * time.Millisecond,
	3500 * time.Millisecond,
	5 * time.Second,
}

const (
	dnsPollInterval = 250 * time.Millisecond
	dnsWaitTimeout  = 6 * time.Second
	dnsRetryWait    = 2500 * time.Millisecond
	downloadTimeout = 9 * time.Second
)

// lookupHost resolves a hostname. Tests can override it.
var lookupHost = func(ctx context.Context, host string) error {
	_, err := net.DefaultResolver.LookupHost(ctx, host)
	return err
}

// downloadClient performs source downloads. Tests can shorten its timeout.
var downloadClient = &http.Client{Timeout: downloadTimeout}

// SourceError reports an import source that could not be read.
type SourceError struct {
	Source   string
	Attempts int
	Err      error
}

func (e *SourceError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("source %s unavailable after %d attempts: %v", e.Source, e.Attempts, e.Err)
	}
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// IsURL reports whether the source string is an http(s) URL.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// LoadSource reads one workflow document from a local file path or URL.
func LoadSource(ctx context.Context, pathOrURL string) (workflow.Document, error) {
	src := strings.TrimSpace(pathOrURL)
	if src == "" {
		return nil, &SourceError{Source: pathOrURL, Err: fmt.Errorf("empty source")}
	}
	if IsURL(src) {
		return DownloadJSON(ctx, src)
	}
	return ReadDocument(src)
}

// ReadDocument parses one workflow JSON file.
func ReadDocument(path string) (workflow.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &SourceError{Source: path, Err: err}
	}
	var doc workflow.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SourceError{Source: path, Err: fmt.Errorf("invalid workflow JSON: %w", err)}
	}
	return doc, nil
}

// DownloadJSON fetches a workflow document over HTTP with DNS warm-up and
// the fixed retry schedule. Any 2xx is success; any other status or
// transport error is retryable. A name-resolution failure mid-schedule adds
// a short extra DNS wait before the next attempt. Exhausting the schedule
// surfaces the last error.
func DownloadJSON(ctx context.Context, rawURL string) (workflow.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &SourceError{Source: rawURL, Err: err}
	}

	// Tunnel hostnames often are not resolvable yet at this point.
	waitForDNS(ctx, u.Hostname(), dnsWaitTimeout)

	var lastErr error
	for i, delay := range retrySchedule {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, &SourceError{Source: rawURL, Attempts: i, Err: ctx.Err()}
			}
		}

		doc, err := fetchJSON(ctx, rawURL)
		if err == nil {
			return doc, nil
		}
		lastErr = err

		if isDNSError(err) {
			waitForDNS(ctx, u.Hostname(), dnsRetryWait)
		}
	}

	return nil, &SourceError{Source: rawURL, Attempts: len(retrySchedule), Err: lastErr}
}

func fetchJSON(ctx context.Context, rawURL string) (workflow.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var doc workflow.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("invalid workflow JSON: %w", err)
	}
	return doc, nil
}

// waitForDNS polls until the host resolves or the window closes. Failure is
// not an error: the HTTP attempt that follows will surface the real problem.
func waitForDNS(ctx context.Context, host string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := lookupHost(ctx, host); err == nil {
			return true
		}
		select {
		case <-time.After(dnsPollInterval):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound || dnsErr.IsTemporary
	}
	return false
}

// BundleEntry is one extracted document from a zip bundle.
type BundleEntry struct {
	Name string
	Doc  workflow.Document
	Err  error
}

// ExtractBundle unpacks a zip archive into a fresh temp directory and parses
// every JSON entry. Per-entry parse failures are carried in the result so a
// single bad file does not sink the rest of the bundle.
func ExtractBundle(zipPath string) ([]BundleEntry, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, &SourceError{Source: zipPath, Err: err}
	}
	defer reader.Close()

	tmpDir := filepath.Join(os.TempDir(), "n8nctl-"+uuid.NewString())
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return nil, fmt.Errorf("create extract directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	var entries []BundleEntry
	for _, f := range reader.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(f.Name), ".json") {
			continue
		}

		entry := BundleEntry{Name: f.Name}
		if doc, err := extractEntry(f, tmpDir); err != nil {
			entry.Err = err
		} else {
			entry.Doc = doc
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, &SourceError{Source: zipPath, Err: fmt.Errorf("no JSON entries in archive")}
	}
	return entries, nil
}

func extractEntry(f *zip.File, tmpDir string) (workflow.Document, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	// Flatten entry names: bundles produced by export are flat already.
	dest := filepath.Join(tmpDir, filepath.Base(f.Name))
	out, err := os.Create(dest)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return nil, err
	}
	out.Close()

	return ReadDocument(dest)
}
