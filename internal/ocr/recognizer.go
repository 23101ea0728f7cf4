package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"speechable/internal/domain"
)

// Line is one recognized text line. Confidence is in [0, 1].
type Line struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Recognizer runs text recognition on a PNG image.
type Recognizer interface {
	Recognize(ctx context.Context, png []byte) ([]Line, error)
}

type RemoteOptions struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// RemoteRecognizer posts images to an OCR engine over HTTP. The engine
// answers {"lines":[{"text":"...","confidence":0.97}]}.
type RemoteRecognizer struct {
	url    string
	apiKey string
	client *http.Client
}

const remoteDefaultTimeout = 60 * time.Second

type remoteResponse struct {
	Lines []Line `json:"lines"`
	Error string `json:"error"`
}

func NewRemoteRecognizer(opts RemoteOptions) (*RemoteRecognizer, error) {
	endpoint := strings.TrimSpace(opts.URL)
	if endpoint == "" {
		return nil, errors.New("ocr service url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: remoteDefaultTimeout}
	}
	return &RemoteRecognizer{url: endpoint, apiKey: strings.TrimSpace(opts.APIKey), client: client}, nil
}

func (r *RemoteRecognizer) Recognize(ctx context.Context, png []byte) ([]Line, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set("Accept", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ocr request: %v", domain.ErrUpstreamFailure, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: ocr status %d: %s", domain.ErrUpstreamFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode ocr response: %v", domain.ErrUpstreamFailure, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: ocr: %s", domain.ErrUpstreamFailure, out.Error)
	}
	return out.Lines, nil
}

var _ Recognizer = (*RemoteRecognizer)(nil)
