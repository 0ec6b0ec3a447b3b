package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/session"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mudra.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	want := Default()
	assert.Equal(t, &want, cfg)
	assert.Equal(t, session.DefaultConfig(), cfg.Recognition)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
log:
  level: debug
  format: json
detector:
  camera_id: 2
  max_hands: 2
recognition:
  classify_interval: 250ms
  min_duration: 5s
  confidence_floor: 0.5
plugins:
  dir: /usr/lib/mudra/plugins
  timeout: 2s
vocabulary: /etc/mudra/signs.yaml
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Detector.CameraID)
	assert.Equal(t, 2, cfg.Detector.MaxHands)
	assert.Equal(t, 0.5, cfg.Detector.MinConfidence, "unset keys keep defaults")
	assert.Equal(t, 250*time.Millisecond, cfg.Recognition.ClassifyInterval)
	assert.Equal(t, 5*time.Second, cfg.Recognition.MinDuration)
	assert.Equal(t, 0.5, cfg.Recognition.ConfidenceFloor)
	assert.Equal(t, 15, cfg.Recognition.MinFrames)
	assert.Equal(t, "/usr/lib/mudra/plugins", cfg.Plugins.Dir)
	assert.Equal(t, 2*time.Second, cfg.Plugins.Timeout)
	assert.Equal(t, "/etc/mudra/signs.yaml", cfg.Vocabulary)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MUDRA_SERVER_ADDR", ":7070")
	t.Setenv("MUDRA_RECOGNITION_MIN_FRAMES", "10")
	t.Setenv("MUDRA_RECOGNITION_MERGE_WINDOW", "3s")

	path := writeConfig(t, "server:\n  addr: \":9090\"\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.Recognition.MinFrames)
	assert.Equal(t, 3*time.Second, cfg.Recognition.MergeWindow)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "unknown key",
			body: "server:\n  adr: x\n",
			want: []string{"adr"},
		},
		{
			name: "invalid values",
			body: "log:\n  level: loud\n  format: xml\nrecognition:\n  min_frames: 40\n  confidence_floor: 1.5\n",
			want: []string{"log.level", "log.format", "min_frames 40 exceeds window_capacity 30", "confidence_floor"},
		},
		{
			name: "bad detector",
			body: "detector:\n  camera_id: -1\n  max_hands: 0\n",
			want: []string{"detector.camera_id", "detector.max_hands"},
		},
		{
			name: "bad plugin timeout",
			body: "plugins:\n  timeout: 0s\n",
			want: []string{"plugins.timeout"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := LogConfig{Level: "warn", Format: "json"}.NewLogger(&buf)

	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), "json output: %s", out)
	assert.Contains(t, out, `"msg":"shown"`)
}
