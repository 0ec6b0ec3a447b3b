package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/transcript"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager discovers plugins and dispatches events to them.
type Manager struct {
	pluginDir string
	executor  *Executor
	log       logrus.FieldLogger

	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewManager creates a Manager for pluginDir.
func NewManager(pluginDir string, executor *Executor, log logrus.FieldLogger) *Manager {
	if executor == nil {
		executor = NewExecutor(DefaultTimeout)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{
		pluginDir: pluginDir,
		executor:  executor,
		log:       log.WithField("component", "plugin"),
		plugins:   make(map[string]*Plugin),
	}
}

// Discover scans the plugin directory. Each subdirectory holding a
// plugin.json manifest is a plugin; unreadable manifests are skipped.
func (m *Manager) Discover() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plugins = make(map[string]*Plugin)

	info, err := os.Stat(m.pluginDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.pluginDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		pluginPath := filepath.Join(m.pluginDir, entry.Name())
		data, err := os.ReadFile(filepath.Join(pluginPath, "plugin.json"))
		if err != nil {
			continue
		}

		var manifest Manifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			m.log.WithError(err).WithField("path", pluginPath).Warn("invalid plugin manifest")
			continue
		}
		if manifest.Name == "" || manifest.Executable == "" {
			m.log.WithField("path", pluginPath).Warn("plugin manifest missing name or executable")
			continue
		}

		m.plugins[manifest.Name] = &Plugin{
			Manifest:   manifest,
			Path:       pluginPath,
			Executable: filepath.Join(pluginPath, manifest.Executable),
		}
	}

	m.log.WithField("count", len(m.plugins)).Info("plugins discovered")
	return nil
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugin, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}
	return plugin, nil
}

// List returns the discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, plugin := range m.plugins {
		plugins = append(plugins, plugin)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}

// Dispatch runs every plugin subscribed to req.Event, in name order. A
// plugin that fails or reports failure does not stop the others; all
// failures are returned joined.
func (m *Manager) Dispatch(ctx context.Context, req Request) error {
	var errs []error
	for _, p := range m.List() {
		if !p.Manifest.Handles(req.Event) {
			continue
		}

		log := m.log.WithFields(logrus.Fields{"plugin": p.Manifest.Name, "event": req.Event})
		resp, err := m.executor.Execute(ctx, p, req)
		if err != nil {
			log.WithError(err).Warn("plugin failed")
			errs = append(errs, err)
			continue
		}
		if !resp.Success {
			err := fmt.Errorf("plugin %s: %s", p.Manifest.Name, resp.Error)
			log.WithError(err).Warn("plugin reported failure")
			errs = append(errs, err)
			continue
		}
		log.Debug("plugin handled event")
	}
	return errors.Join(errs...)
}

// TranscriptConfirmed dispatches EventTranscriptConfirmed.
func (m *Manager) TranscriptConfirmed(ctx context.Context, sessionID, transcriptID string, t transcript.Transcript) error {
	return m.Dispatch(ctx, Request{
		Event:        EventTranscriptConfirmed,
		SessionID:    sessionID,
		TranscriptID: transcriptID,
		Transcript:   t,
	})
}
