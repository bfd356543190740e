// Package graph is a minimal client for the Messenger Platform Send API.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
)

const defaultEndpoint = "https://graph.facebook.com/v2.6/me/messages"

// ClientOption configures the client.
type ClientOption func(*Client)

// WithEndpoint sets the Send API endpoint.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = strings.TrimSuffix(endpoint, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger for responses that cannot be decoded.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client posts messages with a page access token.
type Client struct {
	accessToken string
	endpoint    string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a new Send API client.
func NewClient(accessToken string, opts ...ClientOption) *Client {
	c := &Client{
		accessToken: accessToken,
		endpoint:    defaultEndpoint,
		httpClient:  http.DefaultClient,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Send posts payload. Any status other than 200 is returned as a
// *StatusError carrying the status code. A 200 is always an ack; its body
// is decoded when possible.
func (c *Client) Send(ctx context.Context, payload *domain.DeliveryPayload) (*domain.DeliveryAck, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.endpoint + "?" + url.Values{"access_token": {c.accessToken}}.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var apiErr ErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			statusErr.Message = apiErr.Error.Message
			statusErr.Type = apiErr.Error.Type
			statusErr.Code = apiErr.Error.Code
		}
		return nil, statusErr
	}

	ack := &domain.DeliveryAck{StatusCode: resp.StatusCode}
	if len(bytes.TrimSpace(respBody)) > 0 {
		var decoded domain.DeliveryAck
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			c.logger.WarnContext(ctx, "send API acknowledged with an undecodable body",
				slog.String("error", err.Error()))
			return ack, nil
		}
		ack.RecipientID = decoded.RecipientID
		ack.MessageID = decoded.MessageID
	}
	return ack, nil
}

// ErrorResponse is the Graph API error envelope.
type ErrorResponse struct {
	Error struct {
		Message   string `json:"message"`
		Type      string `json:"type"`
		Code      int    `json:"code"`
		FBTraceID string `json:"fbtrace_id"`
	} `json:"error"`
}

// StatusError is returned when the Send API answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Type       string
	Code       int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("send API error (status %d, %s #%d): %s", e.StatusCode, e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("send API error (status %d): %s", e.StatusCode, e.Message)
}
