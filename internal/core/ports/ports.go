// Package ports defines the interfaces the pipeline needs from its
// external collaborators.
package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
)

// SessionStore is a key-value store with per-key expiry.
type SessionStore interface {
	// Get returns the value for key. found is false when the key is absent
	// or expired.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set writes value under key, expiring after ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the store's connections.
	Close() error
}

// Classifier classifies the image behind a URL.
type Classifier interface {
	Classify(ctx context.Context, imageURL, classifierID string, threshold float64) (*domain.Classification, error)
}

// Engine is the conversational engine. It receives the user's text and the
// current state and returns the reply together with the engine's new state.
type Engine interface {
	Message(ctx context.Context, input string, state domain.ConversationState, workspaceID string) (*domain.EngineReply, error)
}

// Messenger posts a message to a recipient on the messaging platform.
type Messenger interface {
	Deliver(ctx context.Context, recipientID string, message json.RawMessage) (*domain.DeliveryAck, error)
}
