// Package conversation sends canonical requests to the conversational engine.
package conversation

import (
	"context"
	"fmt"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
	"github.com/mauriciojimenezs/toretto/internal/core/ports"
)

// Client binds an engine to one workspace.
type Client struct {
	engine      ports.Engine
	workspaceID string
}

// New creates a client for workspaceID.
func New(engine ports.Engine, workspaceID string) *Client {
	return &Client{engine: engine, workspaceID: workspaceID}
}

// Input returns the text turn sent for req. Images are sent as the sentinel
// text; the classification travels in the state.
func Input(req domain.CanonicalRequest) (string, error) {
	switch r := req.(type) {
	case domain.TextRequest:
		return r.Text, nil
	case domain.ImageRequest:
		return domain.ImageSentinel, nil
	default:
		return "", fmt.Errorf("unsupported request type %T", req)
	}
}

// Send forwards req with state. The reply's state is the engine's context as
// returned, and replaces state entirely. Any failure is EngineUnavailable.
func (c *Client) Send(ctx context.Context, req domain.CanonicalRequest, state domain.ConversationState) (*domain.EngineReply, error) {
	input, err := Input(req)
	if err != nil {
		return nil, domain.NewError(domain.KindUnexpected, "build engine input", err)
	}

	reply, err := c.engine.Message(ctx, input, state, c.workspaceID)
	if err != nil {
		return nil, domain.NewError(domain.KindEngineUnavailable, "engine message", err)
	}
	if reply == nil {
		return nil, domain.NewError(domain.KindEngineUnavailable, "engine returned no reply", nil)
	}
	return reply, nil
}
