package texture

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Fetcher retrieves and decodes one tile texture. Implementations must be
// safe for concurrent use; the load scheduler runs several fetches at once.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Texture, error)
}

// HTTPFetcher fetches tile images over HTTP. Timeouts and cancellation are
// driven entirely by the caller's context.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates an HTTP fetcher with a shared client.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{}}
}

// Fetch downloads and decodes the tile image at url.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Texture, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	fetchedBytes.Add(float64(len(data)))

	tex, err := Decode(url, data)
	if err != nil {
		return nil, fmt.Errorf("tile %s: %w", url, err)
	}
	return tex, nil
}
