package domain

import (
	"encoding/json"
	"testing"
)

func TestDecodeState(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{name: "empty input", input: "", wantLen: 0},
		{name: "whitespace", input: "  \n", wantLen: 0},
		{name: "null", input: "null", wantLen: 0},
		{name: "object", input: `{"turn":1,"system":{"dialog_stack":["root"]}}`, wantLen: 2},
		{name: "array", input: `[1,2]`, wantErr: true},
		{name: "trailing data", input: `{"a":1} {"b":2}`, wantErr: true},
		{name: "truncated", input: `{"a":`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, err := DecodeState([]byte(tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %#v", state)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeState() error = %v", err)
			}
			if state == nil {
				t.Fatal("expected non-nil state")
			}
			if len(state) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(state), tt.wantLen)
			}
		})
	}
}

func TestConversationState_RoundTripKeepsNumbers(t *testing.T) {
	input := `{"big":12345678901234567890,"ratio":0.1,"turn":3}`

	state, err := DecodeState([]byte(input))
	if err != nil {
		t.Fatal(err)
	}
	if state["turn"] != json.Number("3") {
		t.Errorf("turn = %#v, want json.Number", state["turn"])
	}

	out, err := state.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != input {
		t.Errorf("Encode() = %s, want %s", out, input)
	}
}

func TestConversationState_EncodeNil(t *testing.T) {
	var state ConversationState
	out, err := state.Encode()
	if err != nil || string(out) != "{}" {
		t.Errorf("Encode() = %s, %v", out, err)
	}
}

func TestConversationState_With(t *testing.T) {
	base := ConversationState{"turn": json.Number("1")}

	next := base.With("images", "x")
	if _, ok := base["images"]; ok {
		t.Error("With mutated the receiver")
	}
	if next["images"] != "x" || next["turn"] != json.Number("1") {
		t.Errorf("With() = %#v", next)
	}

	var empty ConversationState
	if got := empty.With("k", true); got["k"] != true {
		t.Errorf("With on nil state = %#v", got)
	}
}

func TestToJSONValue(t *testing.T) {
	v, err := ToJSONValue(json.RawMessage(`{"score":0.954,"tags":["a"]}`))
	if err != nil {
		t.Fatal(err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("value = %T", v)
	}
	if m["score"] != json.Number("0.954") {
		t.Errorf("score = %#v", m["score"])
	}

	v, err = ToJSONValue(struct {
		Name string `json:"name"`
	}{Name: "car"})
	if err != nil {
		t.Fatal(err)
	}
	if v.(map[string]any)["name"] != "car" {
		t.Errorf("struct value = %#v", v)
	}

	if _, err := ToJSONValue(json.RawMessage(`{`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
