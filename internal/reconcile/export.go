package reconcile

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/n8n-tools/n8nctl/internal/backup"
	"github.com/n8n-tools/n8nctl/internal/workflow"
)

// BundleFilename is the fixed name of the archive produced by a bundled
// export, written inside the output directory.
const BundleFilename = "workflows-bundle.zip"

// ExportOptions controls an export run.
type ExportOptions struct {
	ID     string // single workflow id; empty with All set exports everything
	All    bool
	Out    string // output directory, or a .json file path for a single export
	Clean  bool
	Bundle bool
}

// ExportItem is the per-workflow outcome of an export.
type ExportItem struct {
	ID   string
	Name string
	Path string
	Err  error
}

// ExportResult aggregates an export run.
type ExportResult struct {
	Items      []ExportItem
	BundlePath string
	BundleErr  error // bundle failure does not roll back written files
}

// Export fetches one or all workflows and writes them as JSON files named
// {sanitized-name}__{id}.json. Per-item failures are recorded and do not
// abort the run. With Bundle, all written files are packed into a single
// archive at a fixed name; bundle failure is reported but the individual
// files stay.
func (r *Reconciler) Export(opts ExportOptions) (*ExportResult, error) {
	if !opts.All && opts.ID == "" {
		return nil, fmt.Errorf("export: provide a workflow id or --all")
	}

	result := &ExportResult{}

	if opts.All {
		list, err := r.API.ListWorkflows()
		if err != nil {
			return nil, err
		}
		for _, summary := range list {
			result.Items = append(result.Items, r.exportOne(summary.ID, opts))
		}
	} else {
		result.Items = append(result.Items, r.exportOne(opts.ID, opts))
	}

	if opts.Bundle {
		result.BundlePath, result.BundleErr = bundleFiles(opts.Out, result.Items)
	}

	return result, nil
}

func (r *Reconciler) exportOne(id string, opts ExportOptions) ExportItem {
	item := ExportItem{ID: id}

	doc, err := r.API.GetWorkflow(id)
	if err != nil {
		item.Err = err
		return item
	}
	item.Name = doc.Name()

	if opts.Clean {
		doc = workflow.Clean(doc)
	}

	path := exportPath(opts.Out, item.Name, id)
	if err := writeDocument(path, doc); err != nil {
		item.Err = err
		return item
	}
	item.Path = path
	return item
}

// exportPath picks the output file: an explicit .json path is honored as-is
// for single exports, anything else is treated as a directory.
func exportPath(out, name, id string) string {
	if strings.HasSuffix(strings.ToLower(out), ".json") {
		return out
	}
	return filepath.Join(out, fmt.Sprintf("%s__%s.json", backup.SanitizeName(name), id))
}

func writeDocument(path string, doc workflow.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode workflow: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write workflow file: %w", err)
	}
	return nil
}

// bundleFiles packs the successfully written export files into one archive.
func bundleFiles(out string, items []ExportItem) (string, error) {
	var files []string
	for _, item := range items {
		if item.Err == nil && item.Path != "" {
			files = append(files, item.Path)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no exported files to bundle")
	}

	dir := out
	if strings.HasSuffix(strings.ToLower(out), ".json") {
		dir = filepath.Dir(out)
	}
	bundlePath := filepath.Join(dir, BundleFilename)

	f, err := os.Create(bundlePath)
	if err != nil {
		return "", fmt.Errorf("create bundle: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, path := range files {
		if err := addToZip(zw, path); err != nil {
			zw.Close()
			return "", fmt.Errorf("bundle %s: %w", filepath.Base(path), err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize bundle: %w", err)
	}
	return bundlePath, nil
}

func addToZip(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := zw.Create(filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
