// Package fetch retrieves the bytes of shapefile members from remote URLs or
// the local disk.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when the referenced resource does not exist.
	ErrNotFound = errors.New("fetch: not found")

	// ErrLocalDisabled is returned by Auto for disk paths when no local fetcher is set.
	ErrLocalDisabled = errors.New("fetch: local paths are disabled")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Code)
}

// Fetcher returns the full content addressed by ref.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// Func adapts a function to the Fetcher interface.
type Func func(ctx context.Context, ref string) ([]byte, error)

// Fetch calls f(ctx, ref).
func (f Func) Fetch(ctx context.Context, ref string) ([]byte, error) {
	return f(ctx, ref)
}

// HTTP fetches http and https URLs.
type HTTP struct {
	Client *http.Client
	Logger zerolog.Logger
}

// NewHTTP returns an HTTP fetcher backed by a pooled client. A zero timeout
// leaves requests bounded only by their context.
func NewHTTP(timeout time.Duration, logger zerolog.Logger) *HTTP {
	client := cleanhttp.DefaultPooledClient()
	client.Timeout = timeout

	return &HTTP{Client: client, Logger: logger}
}

// Fetch downloads url. 404 and 410 responses wrap ErrNotFound.
func (h *HTTP) Fetch(ctx context.Context, url string) ([]byte, error) {
	client := h.Client
	if client == nil {
		client = cleanhttp.DefaultClient()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusGone:
		return nil, fmt.Errorf("%s: %w", url, ErrNotFound)
	default:
		return nil, &StatusError{URL: url, Code: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	h.Logger.Debug().
		Str("url", url).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("fetched")

	return data, nil
}

// Local reads files from disk.
type Local struct{}

// Fetch reads the file at path. Missing files wrap ErrNotFound.
func (Local) Fetch(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return data, err
}

// Auto routes http(s) references to Remote and everything else to Local.
type Auto struct {
	Remote Fetcher
	Local  Fetcher
}

// Fetch dispatches ref by scheme.
func (a Auto) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if IsRemote(ref) {
		if a.Remote == nil {
			return nil, fmt.Errorf("%s: no remote fetcher", ref)
		}
		return a.Remote.Fetch(ctx, ref)
	}

	if a.Local == nil {
		return nil, fmt.Errorf("%s: %w", ref, ErrLocalDisabled)
	}
	return a.Local.Fetch(ctx, ref)
}

// IsRemote reports whether ref is an http or https URL.
func IsRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
