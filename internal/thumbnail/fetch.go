package thumbnail

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxImageBytes = 8 << 20

// Fetcher downloads thumbnail images over HTTP.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewFetcher returns a fetcher bounded by timeout per request.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: timeout}, Timeout: timeout}
}

// Fetch downloads url, decodes it, and writes it to dest as a JPEG.
func (f *Fetcher) Fetch(ctx context.Context, url, dest string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return fmt.Errorf("thumbnail fetch: empty url")
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("thumbnail fetch: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("thumbnail fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("thumbnail fetch: unexpected status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return fmt.Errorf("thumbnail decode: %w", err)
	}
	return writeJPEG(dest, img)
}
