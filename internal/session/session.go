// Package session loads and persists conversation state per sender.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
	"github.com/mauriciojimenezs/toretto/internal/core/ports"
)

// DefaultTTL is how long a saved state lives without a new save.
const DefaultTTL = 600 * time.Second

// Store maps sender ids to their conversation state.
type Store struct {
	kv     ports.SessionStore
	ttl    time.Duration
	logger *slog.Logger
}

// New wraps kv. A non-positive ttl falls back to DefaultTTL.
func New(kv ports.SessionStore, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, ttl: ttl, logger: logger}
}

// TTL returns the expiry applied on save.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Load returns the stored state for senderID, or an empty state when none
// is stored or it expired. A value that does not decode is discarded.
func (s *Store) Load(ctx context.Context, senderID string) (domain.ConversationState, error) {
	raw, found, err := s.kv.Get(ctx, senderID)
	if err != nil {
		return nil, domain.NewError(domain.KindStoreUnavailable, "load session", err)
	}
	if !found {
		s.logger.DebugContext(ctx, "no stored session", slog.String("sender_id", senderID))
		return domain.NewConversationState(), nil
	}

	state, err := domain.DecodeState(raw)
	if err != nil {
		s.logger.WarnContext(ctx, "discarding undecodable session",
			slog.String("sender_id", senderID),
			slog.String("error", err.Error()))
		return domain.NewConversationState(), nil
	}
	return state, nil
}

// Save writes state for senderID with the configured TTL.
func (s *Store) Save(ctx context.Context, senderID string, state domain.ConversationState) error {
	raw, err := state.Encode()
	if err != nil {
		return domain.NewError(domain.KindUnexpected, "encode session", err)
	}
	if err := s.kv.Set(ctx, senderID, raw, s.ttl); err != nil {
		return domain.NewError(domain.KindStoreUnavailable, "save session", err)
	}
	return nil
}

// Clear removes the stored state for senderID.
func (s *Store) Clear(ctx context.Context, senderID string) error {
	if err := s.kv.Delete(ctx, senderID); err != nil {
		return domain.NewError(domain.KindStoreUnavailable, "clear session", err)
	}
	return nil
}
