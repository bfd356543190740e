// Package visualrecognition is a minimal client for the Watson Visual
// Recognition v3 classify API.
package visualrecognition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
	"github.com/mauriciojimenezs/toretto/internal/core/ports"
)

const (
	defaultBaseURL = "https://gateway.watsonplatform.net/visual-recognition/api"
	defaultVersion = "2018-03-19"
)

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithVersion sets the API version date.
func WithVersion(version string) ClientOption {
	return func(c *Client) {
		if version != "" {
			c.version = version
		}
	}
}

// Client classifies images by URL.
type Client struct {
	apiKey     string
	baseURL    string
	version    string
	httpClient *http.Client
}

var _ ports.Classifier = (*Client)(nil)

// NewClient creates a new Visual Recognition client authenticated with an
// IAM API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		version:    defaultVersion,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify runs the given classifier over the image at imageURL. Classes
// scoring below threshold are omitted. An empty classifierID uses the
// service default.
func (c *Client) Classify(ctx context.Context, imageURL, classifierID string, threshold float64) (*domain.Classification, error) {
	q := url.Values{}
	q.Set("version", c.version)
	q.Set("url", imageURL)
	if classifierID != "" {
		q.Set("classifier_ids", classifierID)
	}
	if threshold > 0 {
		q.Set("threshold", strconv.FormatFloat(threshold, 'f', -1, 64))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/classify?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth("apikey", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		var apiErr ErrorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil {
			if m := apiErr.message(); m != "" {
				msg = m
			}
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var result domain.Classification
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	result.Raw = json.RawMessage(body)

	return &result, nil
}

// ErrorResponse is the error body returned by the service. Older gateways
// report the message under "error", newer ones under "description".
type ErrorResponse struct {
	Code        int    `json:"code"`
	Error       string `json:"error"`
	Description string `json:"description"`
}

func (e ErrorResponse) message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Description
}

// APIError is returned for non-200 responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("visual recognition API error (status %d): %s", e.StatusCode, e.Message)
}
