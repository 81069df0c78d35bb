// Package avatar fetches participant avatar images over HTTP.
package avatar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"phone-trivia/internal/app"
)

const (
	// maxImageBytes caps a single avatar download.
	maxImageBytes = 1 << 20

	APIKeyHeader = "X-Api-Key"
)

// HTTPService implements app.AvatarService against GET {baseURL}/avatars/{id}?size=N.
// A 404 is a participant without an avatar and yields a nil image.
type HTTPService struct {
	baseURL string
	client  *http.Client
	headers map[string]string
}

func NewHTTPService(baseURL string, timeout time.Duration) *HTTPService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		headers: make(map[string]string),
	}
}

func (s *HTTPService) SetHeader(key, value string) {
	s.headers[key] = value
}

func (s *HTTPService) GetAvatarImage(ctx context.Context, participantID string, opts app.AvatarOptions) ([]byte, error) {
	endpoint := s.baseURL + "/avatars/" + url.PathEscape(participantID)
	if opts.Size > 0 {
		endpoint += "?size=" + strconv.Itoa(opts.Size)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range s.headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("avatar service returned status code: %d, response: %s", resp.StatusCode, string(body))
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return img, nil
}
