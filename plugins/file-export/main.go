// Package main provides a plugin that writes confirmed transcripts to a
// directory, one text file per transcript plus its summary as JSON.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/ayusman/mudra/internal/plugin"
)

// Config is the "config" object of the plugin manifest.
type Config struct {
	// Dir receives the exported files. Relative paths resolve against the
	// plugin directory.
	Dir string `json:"dir"`
}

// Result is returned in the response data.
type Result struct {
	Text    string `json:"text"`
	Summary string `json:"summary"`
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func main() {
	resp := handle(os.Stdin)
	json.NewEncoder(os.Stdout).Encode(resp)
}

func handle(r io.Reader) plugin.Response {
	var req plugin.Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return failure(fmt.Sprintf("failed to decode request: %v", err))
	}
	if req.Event != plugin.EventTranscriptConfirmed {
		return failure(fmt.Sprintf("unknown event: %s", req.Event))
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return failure(fmt.Sprintf("failed to parse config: %v", err))
		}
	}

	res, err := export(cfg, req)
	if err != nil {
		return failure(err.Error())
	}
	data, err := json.Marshal(res)
	if err != nil {
		return failure(err.Error())
	}
	return plugin.Response{Success: true, Data: data}
}

func export(cfg Config, req plugin.Request) (*Result, error) {
	if cfg.Dir == "" {
		return nil, errors.New("config.dir is required")
	}
	name := req.TranscriptID
	if name == "" {
		name = req.SessionID
	}
	name = unsafeName.ReplaceAllString(name, "_")
	if name == "" {
		return nil, errors.New("request has no transcript or session id")
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, err
	}

	res := &Result{
		Text:    filepath.Join(cfg.Dir, name+".txt"),
		Summary: filepath.Join(cfg.Dir, name+".json"),
	}
	if err := os.WriteFile(res.Text, []byte(req.Transcript.Text+"\n"), 0644); err != nil {
		return nil, err
	}
	summary, err := json.MarshalIndent(req.Transcript.Summary, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(res.Summary, summary, 0644); err != nil {
		return nil, err
	}
	return res, nil
}

func failure(msg string) plugin.Response {
	return plugin.Response{Success: false, Error: msg}
}
