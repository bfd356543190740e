package watson

import (
	"encoding/json"
	"fmt"
)

// MessageRequest is the body of POST /v1/workspaces/{id}/message.
type MessageRequest struct {
	Input   MessageInput    `json:"input"`
	Context json.RawMessage `json:"context,omitempty"`
}

// MessageInput is the user input for one turn.
type MessageInput struct {
	Text string `json:"text"`
}

// MessageResponse is the engine's reply to a message.
type MessageResponse struct {
	Input    MessageInput    `json:"input"`
	Intents  []Intent        `json:"intents,omitempty"`
	Entities []Entity        `json:"entities,omitempty"`
	Output   Output          `json:"output"`
	Context  json.RawMessage `json:"context,omitempty"`
}

// Output holds the dialog output. Facebook is the platform-specific
// interactive payload, when the dialog node defines one.
type Output struct {
	Text         []string        `json:"text"`
	NodesVisited []string        `json:"nodes_visited,omitempty"`
	LogMessages  []LogMessage    `json:"log_messages,omitempty"`
	Facebook     json.RawMessage `json:"facebook,omitempty"`
}

type Intent struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

type Entity struct {
	Entity     string  `json:"entity"`
	Value      string  `json:"value"`
	Location   []int   `json:"location,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type LogMessage struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

// ErrorResponse is the error body returned by the service.
type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("watson API error (status %d): %s", e.StatusCode, e.Message)
}
