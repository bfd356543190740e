// Package watson is a minimal client for the Watson Conversation v1 message API.
package watson

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
	"github.com/mauriciojimenezs/toretto/internal/core/ports"
)

const (
	defaultBaseURL = "https://gateway.watsonplatform.net/conversation/api"
	defaultVersion = "2017-04-21"
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

// Client talks to the Watson Conversation service using basic auth.
type Client struct {
	username   string
	password   string
	baseURL    string
	version    string
	httpClient *http.Client
}

var _ ports.Engine = (*Client)(nil)

// NewClient creates a new Watson Conversation client.
func NewClient(username, password string, opts ...ClientOption) *Client {
	c := &Client{
		username:   username,
		password:   password,
		baseURL:    defaultBaseURL,
		version:    defaultVersion,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SendMessage sends one dialog turn to the workspace.
func (c *Client) SendMessage(ctx context.Context, workspaceID string, req *MessageRequest) (*MessageResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/workspaces/%s/message?version=%s",
		c.baseURL, url.PathEscape(workspaceID), url.QueryEscape(c.version))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(respBody)
		var apiErr ErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var result MessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &result, nil
}

// Message implements ports.Engine. The state is sent as the dialog context
// and the returned context becomes the reply state.
func (c *Client) Message(ctx context.Context, input string, state domain.ConversationState, workspaceID string) (*domain.EngineReply, error) {
	stateJSON, err := state.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode context: %w", err)
	}

	resp, err := c.SendMessage(ctx, workspaceID, &MessageRequest{
		Input:   MessageInput{Text: input},
		Context: stateJSON,
	})
	if err != nil {
		return nil, err
	}

	reply := &domain.EngineReply{
		Utterances:  resp.Output.Text,
		Interactive: resp.Output.Facebook,
	}

	if trimmed := bytes.TrimSpace(resp.Context); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		next, err := domain.DecodeState(trimmed)
		if err != nil {
			return nil, errors.Join(errors.New("malformed context in response"), err)
		}
		reply.State = next
	}

	return reply, nil
}
