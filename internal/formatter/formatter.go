// Package formatter converts engine replies into Send API message objects.
package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
)

// textMessage is the Send API message for a plain text reply.
type textMessage struct {
	Text string `json:"text"`
}

// Format returns the message object for reply. An interactive payload is
// used as-is, or its "message" member when it has one. Without an
// interactive payload the utterances are joined with single spaces.
func Format(reply *domain.EngineReply) (json.RawMessage, error) {
	if reply == nil {
		return nil, fmt.Errorf("format: nil reply")
	}

	if reply.HasInteractive() {
		return interactive(reply.Interactive)
	}

	out, err := json.Marshal(textMessage{Text: strings.Join(reply.Utterances, " ")})
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	return out, nil
}

func interactive(payload json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(payload)

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		// Not an object: pass the payload through untouched.
		if json.Valid(trimmed) {
			return json.RawMessage(trimmed), nil
		}
		return nil, fmt.Errorf("format: invalid interactive payload: %w", err)
	}

	if msg, ok := envelope["message"]; ok {
		msg = bytes.TrimSpace(msg)
		if len(msg) > 0 && !bytes.Equal(msg, []byte("null")) {
			return msg, nil
		}
	}
	return json.RawMessage(trimmed), nil
}
