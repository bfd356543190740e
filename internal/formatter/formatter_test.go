package formatter

import (
	"encoding/json"
	"testing"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		reply *domain.EngineReply
		want  string
	}{
		{
			name:  "joined utterances",
			reply: &domain.EngineReply{Utterances: []string{"Hi there!", "How can I help?"}},
			want:  `{"text":"Hi there! How can I help?"}`,
		},
		{
			name:  "single utterance",
			reply: &domain.EngineReply{Utterances: []string{"hello"}},
			want:  `{"text":"hello"}`,
		},
		{
			name:  "no utterances",
			reply: &domain.EngineReply{},
			want:  `{"text":""}`,
		},
		{
			name:  "null interactive falls back to text",
			reply: &domain.EngineReply{Utterances: []string{"a", "b"}, Interactive: json.RawMessage(`null`)},
			want:  `{"text":"a b"}`,
		},
		{
			name:  "false interactive falls back to text",
			reply: &domain.EngineReply{Utterances: []string{"plain"}, Interactive: json.RawMessage(`false`)},
			want:  `{"text":"plain"}`,
		},
		{
			name:  "zero interactive falls back to text",
			reply: &domain.EngineReply{Utterances: []string{"plain"}, Interactive: json.RawMessage(`0`)},
			want:  `{"text":"plain"}`,
		},
		{
			name:  "empty string interactive falls back to text",
			reply: &domain.EngineReply{Utterances: []string{"plain"}, Interactive: json.RawMessage(`""`)},
			want:  `{"text":"plain"}`,
		},
		{
			name: "interactive message member",
			reply: &domain.EngineReply{
				Utterances:  []string{"ignored"},
				Interactive: json.RawMessage(`{"message":{"attachment":{"type":"template","payload":{"template_type":"button"}}}}`),
			},
			want: `{"attachment":{"type":"template","payload":{"template_type":"button"}}}`,
		},
		{
			name: "interactive without message member",
			reply: &domain.EngineReply{
				Utterances:  []string{"ignored"},
				Interactive: json.RawMessage(`{"quick_replies":[{"content_type":"text","title":"Yes","payload":"YES"}],"text":"Sure?"}`),
			},
			want: `{"quick_replies":[{"content_type":"text","title":"Yes","payload":"YES"}],"text":"Sure?"}`,
		},
		{
			name: "interactive with null message",
			reply: &domain.EngineReply{
				Interactive: json.RawMessage(`{"message":null,"text":"x"}`),
			},
			want: `{"message":null,"text":"x"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.reply)
			if err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Format() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormat_Errors(t *testing.T) {
	if _, err := Format(nil); err == nil {
		t.Error("expected error for nil reply")
	}
	if _, err := Format(&domain.EngineReply{Interactive: json.RawMessage(`{broken`)}); err == nil {
		t.Error("expected error for invalid interactive payload")
	}
}
