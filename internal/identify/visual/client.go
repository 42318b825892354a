package visual

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"cineref/internal/services"
)

// Candidate is one reverse-image-search hit.
type Candidate struct {
	SourceURL    string  `json:"source_url"`
	SourceDomain string  `json:"source_domain"`
	Title        string  `json:"title"`
	MatchScore   float64 `json:"match_score"`
}

var imdbTitlePattern = regexp.MustCompile(`/title/(tt\d{7,})`)

// IMDbID extracts an IMDb title identifier from the candidate's source URL,
// or "" when the hit does not point at an IMDb title page.
func (c Candidate) IMDbID() string {
	match := imdbTitlePattern.FindStringSubmatch(c.SourceURL)
	if match == nil {
		return ""
	}
	return match[1]
}

// Searcher performs reverse image lookups against a search provider.
type Searcher interface {
	SearchByImage(ctx context.Context, image []byte) ([]Candidate, error)
}

// Client talks to a reverse-image-search endpoint that accepts a multipart
// image upload and returns JSON candidates.
type Client struct {
	endpoint      string
	apiKey        string
	maxCandidates int
	httpClient    *http.Client
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds each search call. Applied after WithHTTPClient it
// adjusts the supplied client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a reverse-image-search client.
func New(endpoint, apiKey string, maxCandidates int, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("visual search endpoint required")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("parse visual search endpoint: %w", err)
	}
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	client := &Client{
		endpoint:      endpoint,
		apiKey:        strings.TrimSpace(apiKey),
		maxCandidates: maxCandidates,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type searchResponse struct {
	Results []Candidate `json:"results"`
}

// SearchByImage uploads the frame and returns up to maxCandidates hits in
// provider order. A zero-hit response is returned as an empty slice, not an
// error; HTTP 429 surfaces as ErrRateLimited so callers can stop the stage
// immediately instead of burning quota on retries. One retry is attempted
// for transport-level failures only.
func (c *Client) SearchByImage(ctx context.Context, image []byte) ([]Candidate, error) {
	if len(image) == 0 {
		return nil, services.Wrap(services.ErrInvalidReference, "visual", "search", "empty image payload", nil)
	}

	candidates, err := c.searchOnce(ctx, image)
	if err != nil && errors.Is(err, services.ErrTransient) && ctx.Err() == nil {
		candidates, err = c.searchOnce(ctx, image)
	}
	if err != nil {
		return nil, err
	}
	if len(candidates) > c.maxCandidates {
		candidates = candidates[:c.maxCandidates]
	}
	return candidates, nil
}

func (c *Client) searchOnce(ctx context.Context, image []byte) ([]Candidate, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write image part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		classified := services.ClassifyContextError(ctx, "visual", "search", err)
		if errors.Is(classified, services.ErrTimeout) {
			return nil, classified
		}
		return nil, services.Wrap(services.ErrTransient, "visual", "search", "execute request", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, services.Wrap(services.ErrRateLimited, "visual", "search", "provider throttled the request", nil)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, services.Wrap(services.ErrAccessDenied, "visual", "search", fmt.Sprintf("provider returned %d", resp.StatusCode), nil)
	default:
		return nil, services.Wrap(services.ErrTransient, "visual", "search", fmt.Sprintf("provider returned %d", resp.StatusCode), nil)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, services.Wrap(services.ErrTransient, "visual", "search", "decode provider response", err)
	}
	return payload.Results, nil
}
