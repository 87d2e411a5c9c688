package anonymizer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

// Client talks to the voice anonymization microservice. The service accepts
// raw audio and returns the same content with voice characteristics altered.
type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client with a bounded request timeout. A timeout or transport
// failure is treated as anonymization failure by callers.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Anonymize sends the audio payload and returns the anonymized bytes.
func (c *Client) Anonymize(ctx context.Context, filename string, audio []byte) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return nil, fmt.Errorf("build anonymize request: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("build anonymize request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build anonymize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/anonymize", &body)
	if err != nil {
		return nil, fmt.Errorf("build anonymize request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "voice anonymizer unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, appErrors.Clone(appErrors.ErrUpstream,
			fmt.Sprintf("voice anonymizer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail))))
	}

	anonymized, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read anonymized audio")
	}
	return anonymized, nil
}

// Health reports whether the anonymization service is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "voice anonymizer unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return appErrors.Clone(appErrors.ErrUpstream, fmt.Sprintf("voice anonymizer health returned status %d", resp.StatusCode))
	}
	return nil
}
