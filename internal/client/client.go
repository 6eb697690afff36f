// Package client talks to the vendor download service: it fetches the
// catalog feed and streams individual catalog files to disk. Every request
// authenticates with the account's MAGEID/TOKEN pair as HTTP basic auth.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mageops/magemirror/internal/config"
	"github.com/mageops/magemirror/internal/safety"
)

// Endpoint paths under the service base URL.
const (
	catalogPath  = "/products/downloads/info/json"
	filePathRoot = "/products/downloads/file/"
)

// maxCatalogBytes bounds catalog responses. Real feeds are single-digit
// megabytes; anything near this limit is a broken upstream.
const maxCatalogBytes = 64 << 20

// maxErrorBodyBytes bounds error bodies captured into HTTPError.
const maxErrorBodyBytes = 8 << 10

// ProgressFunc is called as file bytes arrive. fetched is the byte count so
// far, total the size announced by the Content-Length header.
type ProgressFunc func(fileName string, fetched, total int64)

// CatalogSource produces the raw catalog feed. Client implements it, and
// CachedCatalogSource wraps any implementation with an on-disk cache.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]byte, error)
}

// Client performs authenticated requests against the download service.
//
// File downloads are deliberately plain: one attempt, no resume, no retry.
// A failed file is reported by the sync loop and picked up again on the
// next run.
type Client struct {
	baseURL    string
	creds      config.Credentials
	catClient  *http.Client
	fileClient *http.Client
	userAgent  string
	logger     *slog.Logger

	// OnProgress, when set, observes every file download.
	OnProgress ProgressFunc
}

// New creates a Client for the given base URL. catalogTimeout bounds the
// whole catalog request; file downloads carry transport-level timeouts only.
func New(baseURL string, creds config.Credentials, catalogTimeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		creds:     creds,
		catClient: safety.NewHTTPClient(catalogTimeout),
		fileClient: &http.Client{
			Transport: &http.Transport{
				DialContext:           (&net.Dialer{Timeout: 30 * time.Second}).DialContext,
				TLSHandshakeTimeout:   15 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
			},
			// No overall Timeout: body reads can take as long as needed.
			// Context cancellation still works for user-initiated cancel.
		},
		userAgent: "magemirror/1.0",
		logger:    logger,
	}
}

// FileURL returns the download URL for a catalog file name. Names may hold
// spaces and other reserved characters; they travel as one escaped path
// segment.
func (c *Client) FileURL(fileName string) string {
	return c.baseURL + filePathRoot + url.PathEscape(fileName)
}

// FetchCatalog retrieves the raw catalog feed.
func (c *Client) FetchCatalog(ctx context.Context) ([]byte, error) {
	req, err := c.newRequest(ctx, c.baseURL+catalogPath)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.catClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newHTTPError(resp)
	}

	data, err := safety.ReadAllWithLimit(resp.Body, maxCatalogBytes)
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}
	c.logger.Debug("catalog fetched", "bytes", len(data))
	return data, nil
}

// Fetch streams one catalog file into dest. The body lands in a temporary
// file next to dest and is renamed into place only after a complete read,
// so a failed fetch never truncates or corrupts an existing mirror copy.
func (c *Client) Fetch(ctx context.Context, fileName, dest string) error {
	req, err := c.newRequest(ctx, c.FileURL(fileName))
	if err != nil {
		return err
	}

	resp, err := c.fileClient.Do(req)
	if err != nil {
		return fmt.Errorf("file request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp)
	}

	total := resp.ContentLength
	if total < 0 {
		return fmt.Errorf("response for %q carries no Content-Length", fileName)
	}

	reader := io.Reader(resp.Body)
	if c.OnProgress != nil {
		reader = &progressReader{
			reader:   resp.Body,
			fileName: fileName,
			callback: c.OnProgress,
			total:    total,
		}
	}

	if err := writeFile(dest, reader); err != nil {
		return err
	}

	c.logger.Info("fetched", "file", fileName, "dest", dest, "bytes", total)
	return nil
}

// newRequest builds an authenticated GET request.
func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.creds.MageID, c.creds.Token)
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

// writeFile streams reader into dest through a temp file in the same
// directory, renamed over dest only once fully written and synced.
func writeFile(dest string, reader io.Reader) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".fetch-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmp, reader); err != nil {
		return fmt.Errorf("failed to write to file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	tmpPath = ""

	if err := os.Chmod(dest, 0o644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}
	return nil
}

// newHTTPError captures the status and a bounded slice of the error body.
func newHTTPError(resp *http.Response) *HTTPError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}

// HTTPError represents an HTTP error response.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error %d: %s", e.StatusCode, e.Status)
}

// progressReader wraps a reader and calls a progress callback as data is read.
type progressReader struct {
	reader   io.Reader
	fileName string
	callback ProgressFunc
	current  int64
	total    int64
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.current += int64(n)
		if pr.callback != nil {
			pr.callback(pr.fileName, pr.current, pr.total)
		}
	}
	return n, err
}
