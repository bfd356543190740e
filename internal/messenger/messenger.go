// Package messenger delivers formatted replies through the Send API.
package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/mauriciojimenezs/toretto/internal/api/graph"
	"github.com/mauriciojimenezs/toretto/internal/core/domain"
	"github.com/mauriciojimenezs/toretto/internal/core/ports"
)

// Sender posts a Send API payload.
type Sender interface {
	Send(ctx context.Context, payload *domain.DeliveryPayload) (*domain.DeliveryAck, error)
}

// Adapter maps Send API outcomes onto typed delivery errors.
type Adapter struct {
	sender Sender
	logger *slog.Logger
}

var _ ports.Messenger = (*Adapter)(nil)

// New creates an adapter over sender.
func New(sender Sender, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{sender: sender, logger: logger}
}

// Deliver posts message to recipientID. A non-200 answer becomes a
// DeliveryFailed error with that status; a transport failure has status 0.
func (a *Adapter) Deliver(ctx context.Context, recipientID string, message json.RawMessage) (*domain.DeliveryAck, error) {
	ack, err := a.sender.Send(ctx, &domain.DeliveryPayload{
		Recipient: domain.Party{ID: recipientID},
		Message:   message,
	})
	if err != nil {
		var statusErr *graph.StatusError
		if errors.As(err, &statusErr) {
			return nil, domain.DeliveryFailed(statusErr.StatusCode, statusErr.Message, err)
		}
		return nil, domain.DeliveryFailed(0, "send API unreachable", err)
	}

	a.logger.InfoContext(ctx, "reply delivered",
		slog.String("recipient_id", recipientID),
		slog.String("message_id", ack.MessageID),
		slog.String("note", domain.DeliveredNote))
	return ack, nil
}
