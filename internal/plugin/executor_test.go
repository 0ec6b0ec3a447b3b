package plugin

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/transcript"
)

// writeScript creates an executable shell plugin in a temp dir.
func writeScript(t *testing.T, name, body string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{
		Manifest: Manifest{
			Name:       name,
			Executable: name,
			Events:     []string{EventTranscriptConfirmed},
		},
		Path:       dir,
		Executable: path,
	}
}

func testRequest() Request {
	return Request{
		Event:        EventTranscriptConfirmed,
		SessionID:    "s-1",
		TranscriptID: "t-1",
		Transcript: transcript.Transcript{
			Text:    "I want to make a complaint. greeting.",
			Summary: transcript.Summary{Status: transcript.StatusDetected},
		},
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := writeScript(t, "ok.sh", "echo '{\"success\":true,\"data\":{\"ticket\":\"42\"}}'\n")

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, testRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !resp.Success {
		t.Errorf("expected success=true, got false")
	}

	var data map[string]string
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["ticket"] != "42" {
		t.Errorf("expected ticket 42, got %v", data["ticket"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	// Echo the request back inside the data field.
	plugin := writeScript(t, "echo.sh", "printf '{\"success\":true,\"data\":'\ncat\nprintf '}'\n")
	plugin.Manifest.Config = json.RawMessage(`{"desk":"north"}`)

	resp, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, testRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var got Request
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if got.Event != EventTranscriptConfirmed || got.SessionID != "s-1" || got.TranscriptID != "t-1" {
		t.Errorf("unexpected echoed request %+v", got)
	}
	if got.Transcript.Text != "I want to make a complaint. greeting." {
		t.Errorf("unexpected transcript text %q", got.Transcript.Text)
	}
	if string(got.Config) != `{"desk":"north"}` {
		t.Errorf("expected manifest config to be attached, got %s", got.Config)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := writeScript(t, "slow.sh", "exec sleep 5\n")

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), plugin, testRequest())
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := writeScript(t, "fail.sh", "echo '{\"success\":false,\"error\":\"desk closed\"}'\n")

	resp, err := NewExecutor(0).Execute(context.Background(), plugin, testRequest())
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if resp.Success {
		t.Error("expected success=false")
	}
	if resp.Error != "desk closed" {
		t.Errorf("expected error 'desk closed', got %q", resp.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	plugin := writeScript(t, "garbage.sh", "echo 'not json'\n")

	_, err := NewExecutor(0).Execute(context.Background(), plugin, testRequest())
	if err == nil {
		t.Fatal("expected error for invalid JSON output")
	}
	if !strings.Contains(err.Error(), "parse response") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	plugin := writeScript(t, "exit.sh", "echo 'boom' >&2\nexit 3\n")

	_, err := NewExecutor(0).Execute(context.Background(), plugin, testRequest())
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestNewExecutor(t *testing.T) {
	if e := NewExecutor(0); e.timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", e.timeout)
	}
	if e := NewExecutor(time.Second); e.timeout != time.Second {
		t.Errorf("expected 1s timeout, got %v", e.timeout)
	}
}
