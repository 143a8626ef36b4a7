package storage

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"
)

// ImageFetcher retrieves a decoded image from a URL. The engine itself never
// performs I/O; fetchers live on the caller side of the pipeline.
type ImageFetcher interface {
	FetchImage(ctx context.Context, imageURL string) (image.Image, error)
}

// HTTPImageFetcher implements ImageFetcher over plain HTTP(S).
type HTTPImageFetcher struct {
	client   *http.Client
	attempts int
}

// NewHTTPImageFetcher creates an HTTP image fetcher with bounded retries.
func NewHTTPImageFetcher() ImageFetcher {
	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		attempts: 3,
	}
}

func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/gif, */*")
	req.Header.Set("User-Agent", "Go-Morph-Detector/1.0")

	resp, err := h.fetchWithRetry(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// fetchWithRetry retries transient failures (transport errors and 5xx) with
// linear backoff. 4xx responses are terminal.
func (h *HTTPImageFetcher) fetchWithRetry(req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < h.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			resp.Body.Close()
			return nil, fmt.Errorf("client error: status code %d", resp.StatusCode)
		default:
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		}
	}
	return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", h.attempts, lastErr)
}
