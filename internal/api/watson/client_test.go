package watson

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/mauriciojimenezs/toretto/internal/core/domain"
	"github.com/mauriciojimenezs/toretto/internal/testutil"
)

func TestClient_Message(t *testing.T) {
	if os.Getenv("WATSON_PASSWORD") == "" && os.Getenv("VCR_MODE") == "record" {
		t.Skip("Skipping test: WATSON_PASSWORD not set")
	}

	recorder, cleanup := testutil.NewVCRRecorder(t, "watson_message")
	defer cleanup()

	c := NewClient("user", "pass", WithHTTPClient(testutil.VCRHTTPClient(recorder)))

	state := domain.ConversationState{
		"conversation_id": "c-42",
		"system":          map[string]any{"dialog_turn_counter": json.Number("1")},
	}
	reply, err := c.Message(context.Background(), "hello", state, "ws-1")
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}

	if len(reply.Utterances) != 2 || reply.Utterances[0] != "Hi there!" {
		t.Errorf("Utterances = %v", reply.Utterances)
	}
	if reply.HasInteractive() {
		t.Errorf("expected no interactive payload, got %s", reply.Interactive)
	}
	if reply.State["turn"] != json.Number("1") {
		t.Errorf("State[turn] = %#v, want 1", reply.State["turn"])
	}
	if reply.State["conversation_id"] != "c-42" {
		t.Errorf("State[conversation_id] = %#v", reply.State["conversation_id"])
	}

	reply, err = c.Message(context.Background(), "menu", nil, "ws-1")
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}
	if !reply.HasInteractive() {
		t.Fatal("expected interactive payload")
	}
	var fb struct {
		Message struct {
			Attachment struct {
				Type string `json:"type"`
			} `json:"attachment"`
		} `json:"message"`
	}
	if err := json.Unmarshal(reply.Interactive, &fb); err != nil {
		t.Fatalf("interactive payload: %v", err)
	}
	if fb.Message.Attachment.Type != "template" {
		t.Errorf("attachment type = %q", fb.Message.Attachment.Type)
	}
}

func TestClient_MessageRequest(t *testing.T) {
	var gotPath, gotVersion, gotUser, gotPass string
	var gotBody MessageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotVersion = r.URL.Query().Get("version")
		gotUser, gotPass, _ = r.BasicAuth()
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"output":{"text":["ok"]},"context":null}`)
	}))
	defer srv.Close()

	c := NewClient("u", "p", WithBaseURL(srv.URL+"/"), WithVersion("2018-02-16"))
	reply, err := c.Message(context.Background(), "hi", domain.ConversationState{"a": "b"}, "ws 1")
	if err != nil {
		t.Fatalf("Message() error = %v", err)
	}

	if gotPath != "/v1/workspaces/ws 1/message" {
		t.Errorf("path = %q", gotPath)
	}
	if gotVersion != "2018-02-16" {
		t.Errorf("version = %q", gotVersion)
	}
	if gotUser != "u" || gotPass != "p" {
		t.Errorf("basic auth = %q:%q", gotUser, gotPass)
	}
	if gotBody.Input.Text != "hi" || string(gotBody.Context) != `{"a":"b"}` {
		t.Errorf("body = %+v (context %s)", gotBody, gotBody.Context)
	}
	if reply.State != nil {
		t.Errorf("null context should leave State nil, got %#v", reply.State)
	}
}

func TestClient_MessageErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "api error",
			status: http.StatusUnauthorized,
			body:   `{"code":401,"error":"Unauthorized"}`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("expected *APIError, got %T", err)
				}
				if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Unauthorized" {
					t.Errorf("apiErr = %+v", apiErr)
				}
			},
		},
		{
			name:   "plain error body",
			status: http.StatusBadGateway,
			body:   `upstream down`,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.Message != "upstream down" {
					t.Errorf("err = %v", err)
				}
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `{"output":`,
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Error("expected error")
				}
			},
		},
		{
			name:   "context not an object",
			status: http.StatusOK,
			body:   `{"output":{"text":[]},"context":[1,2]}`,
			check: func(t *testing.T, err error) {
				if err == nil {
					t.Error("expected error")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			c := NewClient("u", "p", WithBaseURL(srv.URL))
			_, err := c.Message(context.Background(), "hi", nil, "ws")
			tt.check(t, err)
		})
	}
}
