// Package archive stores copies of accepted norm documents in a per-run
// dated directory on local disk.
package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"NormasScanner/internal/ports"
)

// Local downloads documents over HTTP and writes them under
// <root>/<YYYY-MM-DD>/, returning the file path as the reference.
type Local struct {
	root   string
	runDay string
	client *http.Client
}

var _ ports.DocumentArchive = (*Local)(nil)

// New builds an archive rooted at dir for the given run day.
func New(dir string, runDay time.Time, client *http.Client) *Local {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Local{
		root:   dir,
		runDay: runDay.Format("2006-01-02"),
		client: client,
	}
}

// Store fetches the document and persists it. Files already present are kept
// as-is so retries within a day do not re-download.
func (l *Local) Store(ctx context.Context, documentURL, fileName string) (string, error) {
	dir := filepath.Join(l.root, l.runDay)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	dest := filepath.Join(dir, fileName)
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch document: %s", resp.Status)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", fmt.Errorf("finalize document: %w", err)
	}

	return dest, nil
}
