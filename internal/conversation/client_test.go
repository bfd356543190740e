package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
)

type engineCall struct {
	input       string
	state       domain.ConversationState
	workspaceID string
}

// mockEngine records calls and returns a configured reply.
type mockEngine struct {
	calls []engineCall
	reply *domain.EngineReply
	err   error
}

func (m *mockEngine) Message(_ context.Context, input string, state domain.ConversationState, workspaceID string) (*domain.EngineReply, error) {
	m.calls = append(m.calls, engineCall{input, state, workspaceID})
	return m.reply, m.err
}

func TestClient_Send(t *testing.T) {
	next := domain.ConversationState{"turn": json.Number("2")}

	tests := []struct {
		name      string
		req       domain.CanonicalRequest
		wantInput string
	}{
		{name: "text", req: domain.TextRequest{Text: "hello"}, wantInput: "hello"},
		{name: "image", req: domain.ImageRequest{Classification: &domain.Classification{}}, wantInput: "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockEngine{reply: &domain.EngineReply{Utterances: []string{"hi"}, State: next}}
			c := New(engine, "ws-1")
			state := domain.ConversationState{"turn": json.Number("1"), "keep": "me"}

			reply, err := c.Send(context.Background(), tt.req, state)
			if err != nil {
				t.Fatalf("Send() error = %v", err)
			}

			if len(engine.calls) != 1 {
				t.Fatalf("engine called %d times", len(engine.calls))
			}
			call := engine.calls[0]
			if call.input != tt.wantInput || call.workspaceID != "ws-1" {
				t.Errorf("call = %+v", call)
			}
			if !reflect.DeepEqual(call.state, state) {
				t.Errorf("state sent = %#v", call.state)
			}
			// Replaced, not merged.
			if !reflect.DeepEqual(reply.State, next) {
				t.Errorf("reply state = %#v, want %#v", reply.State, next)
			}
		})
	}
}

func TestClient_SendFailure(t *testing.T) {
	cause := errors.New("503 service unavailable")
	c := New(&mockEngine{err: cause}, "ws-1")

	_, err := c.Send(context.Background(), domain.TextRequest{Text: "hi"}, nil)
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("Send() error = %v, want EngineUnavailable", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause not wrapped: %v", err)
	}

	_, err = New(&mockEngine{}, "ws-1").Send(context.Background(), domain.TextRequest{Text: "hi"}, nil)
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("nil reply: error = %v, want EngineUnavailable", err)
	}
}

func TestInput_Unsupported(t *testing.T) {
	if _, err := Input(nil); err == nil {
		t.Error("expected error for nil request")
	}
}
