// Package backup writes timestamped snapshots of workflow documents before
// any destructive or mutating operation, and manages the local named-version
// tree.
package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/n8n-tools/n8nctl/internal/workflow"
)

// maxNameLen bounds the sanitized name fragment inside snapshot filenames.
const maxNameLen = 80

// backupDirFunc resolves the snapshot directory (~/.n8nctl/backups).
// Tests can override this to point at a temp directory.
var backupDirFunc = defaultBackupDir

// versionsDirFunc resolves the named versions tree (./versions).
var versionsDirFunc = defaultVersionsDir

func defaultBackupDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".n8nctl", "backups"), nil
}

func defaultVersionsDir() (string, error) {
	return "versions", nil
}

// SanitizeName reduces a workflow name to a filesystem-safe fragment:
// lowercase ASCII in [a-z0-9._-], accents folded to their base letter,
// separators collapsed and trimmed, capped at 80 characters. An empty
// result falls back to "workflow".
func SanitizeName(name string) string {
	s := strings.ToLower(name)
	s = foldAccents(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	s = b.String()

	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")

	if len(s) > maxNameLen {
		s = strings.Trim(s[:maxNameLen], "_")
	}
	if s == "" {
		return "workflow"
	}
	return s
}

// foldAccents decomposes the string and drops combining marks, so "é"
// sanitizes to "e" instead of "_".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Stamp formats a snapshot timestamp with second resolution.
func Stamp(t time.Time) string {
	return t.Format("20060102-150405")
}

// Snapshot writes the full (uncleaned) document to the backup directory and
// returns the file path. Callers performing a mutation MUST abort when this
// returns an error: a failed backup means no DELETE/PUT goes out.
func Snapshot(id, name string, doc workflow.Document) (string, error) {
	dir, err := backupDirFunc()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	if id == "" {
		id = "noid"
	}
	file := filepath.Join(dir, fmt.Sprintf("%s__%s__%s.json", Stamp(time.Now()), id, SanitizeName(name)))

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}
	if err := os.WriteFile(file, data, 0644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return file, nil
}

// Version is one saved entry in a workflow's named version history.
type Version struct {
	Name    string
	Path    string
	SavedAt time.Time
}

// SaveVersion snapshots the document into the named versions tree
// (versions/<sanitized-name>/<stamp>[__comment].json).
func SaveVersion(name, comment string, doc workflow.Document) (string, error) {
	base, err := versionsDirFunc()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(base, SanitizeName(name))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create versions directory: %w", err)
	}

	filename := Stamp(time.Now())
	if c := SanitizeName(comment); comment != "" && c != "workflow" {
		filename += "__" + c
	}
	filename += ".json"

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode version: %w", err)
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write version: %w", err)
	}
	return path, nil
}

// ListVersions returns the saved versions for a workflow name, newest first.
// A missing directory yields an empty slice, not an error.
func ListVersions(name string) ([]Version, error) {
	base, err := versionsDirFunc()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(base, SanitizeName(name))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Version{}, nil
		}
		return nil, fmt.Errorf("read versions directory: %w", err)
	}

	versions := make([]Version, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		v := Version{Name: e.Name(), Path: filepath.Join(dir, e.Name())}
		if info, err := e.Info(); err == nil {
			v.SavedAt = info.ModTime()
		}
		versions = append(versions, v)
	}

	// Timestamp-prefixed filenames sort chronologically.
	sort.Slice(versions, func(i, j int) bool { return versions[i].Name > versions[j].Name })
	return versions, nil
}
