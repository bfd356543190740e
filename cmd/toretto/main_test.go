package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mauriciojimenezs/toretto/internal/storage/sqlite"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("output = %q", out)
	}
}

func TestSessionCmds(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sessions.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	content := "session:\n  driver: sqlite\n  sqlite:\n    path: " + dbPath + "\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(context.Background(), "U1", []byte(`{"turn":1}`), time.Minute); err != nil {
		t.Fatal(err)
	}
	store.Close()

	out, err := run(t, "--config", cfgPath, "session", "get", "U1")
	if err != nil {
		t.Fatalf("session get error = %v", err)
	}
	if !strings.Contains(out, `"turn": 1`) {
		t.Errorf("session get output = %q", out)
	}

	out, err = run(t, "--config", cfgPath, "session", "clear", "U1")
	if err != nil {
		t.Fatalf("session clear error = %v", err)
	}
	if !strings.Contains(out, "cleared U1") {
		t.Errorf("session clear output = %q", out)
	}

	out, err = run(t, "--config", cfgPath, "session", "get", "U1")
	if err != nil {
		t.Fatalf("session get error = %v", err)
	}
	if strings.TrimSpace(out) != "{}" {
		t.Errorf("expected empty state after clear, got %q", out)
	}
}

func TestSessionGet_RequiresSender(t *testing.T) {
	if _, err := run(t, "session", "get"); err == nil {
		t.Error("expected error without sender id")
	}
}

func TestServe_InvalidConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("session:\n  driver: memory\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := run(t, "--config", cfgPath, "serve")
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("serve error = %v, want invalid config", err)
	}
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{in: ""}, {in: "debug"}, {in: "INFO"}, {in: "warning"}, {in: "error"},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		if _, err := parseSlogLevel(tt.in); (err != nil) != tt.wantErr {
			t.Errorf("parseSlogLevel(%q) error = %v", tt.in, err)
		}
	}
}
