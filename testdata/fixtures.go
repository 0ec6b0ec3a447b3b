// Package testdata embeds recorded landmark streams used as regression
// fixtures.
package testdata

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"io/fs"
)

//go:embed replay/*.jsonl
var replayFS embed.FS

// OpenReplay returns the named recording from replay/.
func OpenReplay(name string) (io.Reader, error) {
	data, err := replayFS.ReadFile("replay/" + name)
	if err != nil {
		return nil, fmt.Errorf("load replay %s: %w", name, err)
	}
	return bytes.NewReader(data), nil
}

// Replays lists the embedded recordings.
func Replays() ([]string, error) {
	entries, err := fs.ReadDir(replayFS, "replay")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}
