// Package plugin hands confirmed transcripts to external executables, such
// as a complaint desk integration, over a JSON stdin/stdout protocol.
package plugin

import (
	"encoding/json"

	"github.com/ayusman/mudra/internal/transcript"
)

// EventTranscriptConfirmed is sent when a session transcript is confirmed.
const EventTranscriptConfirmed = "transcript.confirmed"

// Manifest describes a plugin's metadata and the events it handles.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Events      []string        `json:"events"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Handles reports whether the plugin subscribes to event.
func (m Manifest) Handles(event string) bool {
	for _, e := range m.Events {
		if e == event {
			return true
		}
	}
	return false
}

// Request is written to a plugin's stdin.
type Request struct {
	Event        string                `json:"event"`
	SessionID    string                `json:"session_id"`
	TranscriptID string                `json:"transcript_id,omitempty"`
	Transcript   transcript.Transcript `json:"transcript"`
	Config       json.RawMessage       `json:"config,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin represents a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
