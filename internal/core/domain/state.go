package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
)

// ImagesKey is the reserved state key holding the latest image classification.
const ImagesKey = "images"

// ConversationState is the engine's dialog context for one sender.
// Values are plain JSON values; numbers are kept as json.Number so that a
// decode/encode cycle reproduces the input exactly.
type ConversationState map[string]any

// NewConversationState returns an empty state.
func NewConversationState() ConversationState {
	return ConversationState{}
}

// DecodeState parses a JSON object into a ConversationState.
// A JSON null or empty input yields an empty state.
func DecodeState(data []byte) (ConversationState, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewConversationState(), nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var state ConversationState
	if err := dec.Decode(&state); err != nil {
		return nil, fmt.Errorf("decode conversation state: %w", err)
	}
	if dec.More() {
		return nil, errors.New("decode conversation state: trailing data")
	}
	if state == nil {
		state = NewConversationState()
	}
	return state, nil
}

// Encode serializes the state. A nil state encodes as an empty object.
func (s ConversationState) Encode() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(s))
}

// Clone returns a shallow copy; callers only ever replace top-level keys.
func (s ConversationState) Clone() ConversationState {
	if s == nil {
		return NewConversationState()
	}
	return maps.Clone(s)
}

// With returns a copy of the state with key set to value.
func (s ConversationState) With(key string, value any) ConversationState {
	next := s.Clone()
	next[key] = value
	return next
}

// ToJSONValue converts v into the plain JSON representation used inside a
// ConversationState (maps, slices, strings, json.Number, bools, nil).
func ToJSONValue(v any) (any, error) {
	var raw []byte
	switch t := v.(type) {
	case json.RawMessage:
		raw = t
	default:
		var err error
		raw, err = json.Marshal(v)
		if err != nil {
			return nil, err
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
