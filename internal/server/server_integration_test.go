package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/timeutil"
)

var epoch = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	ts    *httptest.Server
	clock *timeutil.MockClock
	store *store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := timeutil.NewMockClock(epoch)
	logger, _ := test.NewNullLogger()
	m, err := session.NewManager(session.DefaultConfig(), nil, session.WithClock(clock), session.WithLogger(logger))
	require.NoError(t, err)

	ts := httptest.NewServer(New(Config{Sessions: m, Store: st, Logger: logger}))
	t.Cleanup(ts.Close)
	return &testEnv{ts: ts, clock: clock, store: st}
}

func (e *testEnv) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := e.ts.Client().Post(e.ts.URL+path, "application/json", &buf)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

type snapshotBody struct {
	ID              string `json:"id"`
	State           string `json:"state"`
	TotalDetections int    `json:"total_detections"`
}

func TestAPI_SessionWorkflow(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[snapshotBody](t, resp)
	assert.Equal(t, "idle", created.State)
	base := "/api/sessions/" + created.ID

	resp = env.post(t, base+"/ready", map[string]bool{"available": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "detecting", decode[snapshotBody](t, resp).State)

	resp = env.post(t, base+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "recording", decode[snapshotBody](t, resp).State)

	palm := detector.OpenPalmLandmarks()
	classified := 0
	for i := 0; i < 20; i++ {
		if i > 0 {
			env.clock.Advance(200 * time.Millisecond)
		}
		resp = env.post(t, base+"/frames", map[string]any{"hand": detector.WireFrom(&palm)})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		res := decode[session.FrameResult](t, resp)
		if res.Classification != nil {
			classified++
			assert.Equal(t, "hello", res.Classification.Sign)
		}
	}
	assert.Equal(t, 2, classified)

	env.clock.Set(epoch.Add(4 * time.Second))
	resp = env.post(t, base+"/stop", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.post(t, base+"/finalize", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	finalized := decode[struct {
		Text string `json:"text"`
	}](t, resp)
	assert.True(t, strings.HasPrefix(finalized.Text, "I want to make a complaint. greeting.\n"))

	resp = env.post(t, base+"/confirm", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	confirmed := decode[struct {
		TranscriptID string `json:"transcript_id"`
	}](t, resp)
	require.NotEmpty(t, confirmed.TranscriptID)

	resp, err := env.ts.Client().Get(env.ts.URL + "/api/transcripts/" + confirmed.TranscriptID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stored := decode[store.Record](t, resp)
	assert.Equal(t, created.ID, stored.SessionID)
	assert.Equal(t, finalized.Text, stored.Text)
	assert.Equal(t, 4*time.Second, stored.Duration)

	req, _ := http.NewRequest(http.MethodDelete, env.ts.URL+"/api/transcripts/"+confirmed.TranscriptID, nil)
	resp, err = env.ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = env.ts.Client().Get(env.ts.URL + "/api/transcripts/" + confirmed.TranscriptID)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_LandmarkStream(t *testing.T) {
	env := newTestEnv(t)

	created := decode[snapshotBody](t, env.post(t, "/api/sessions", nil))
	base := "/api/sessions/" + created.ID
	env.post(t, base+"/ready", map[string]bool{"available": true}).Body.Close()
	env.post(t, base+"/start", nil).Body.Close()

	wsURL := "ws" + strings.TrimPrefix(env.ts.URL, "http") + base + "/landmarks"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	fist := detector.FistLandmarks()
	moved := fist.Translate(detector.Point3D{X: 0.1})
	var last session.FrameResult
	for i := 0; i < 16; i++ {
		hand := fist
		step := 100 * time.Millisecond
		if i == 15 {
			// Past the throttle interval so the moved frame is classified.
			hand = moved
			step = 600 * time.Millisecond
		}
		env.clock.Advance(step)
		msg := detector.FrameMessage{TimestampMs: int64(i * 100), Hand: detector.WireFrom(&hand)}
		require.NoError(t, conn.WriteJSON(msg))
		require.NoError(t, conn.ReadJSON(&last))
	}
	require.NotNil(t, last.Classification)
	assert.Equal(t, "yes", last.Classification.Sign)

	// No hand and garbage both leave the window untouched.
	for _, payload := range []string{`{"t":1700,"hand":null}`, `{"t":1800,"hand":{"points":[]}}`, `not json`} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
		var res session.FrameResult
		require.NoError(t, conn.ReadJSON(&res))
		assert.False(t, res.HandPresent, "payload %s", payload)
	}

	resp, err := env.ts.Client().Get(env.ts.URL + base)
	require.NoError(t, err)
	snap := decode[struct {
		WindowSize int `json:"window_size"`
	}](t, resp)
	assert.Equal(t, 16, snap.WindowSize)
}

func TestAPI_LandmarkStreamUnknownSession(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/api/sessions/missing/landmarks"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_ErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	created := decode[snapshotBody](t, env.post(t, "/api/sessions", nil))
	base := "/api/sessions/" + created.ID

	tests := []struct {
		path string
		body any
		want int
	}{
		{base + "/start", nil, http.StatusServiceUnavailable},
		{base + "/stop", nil, http.StatusConflict},
		{base + "/finalize", nil, http.StatusConflict},
		{base + "/confirm", nil, http.StatusConflict},
		{"/api/sessions/missing/start", nil, http.StatusNotFound},
		{base + "/bogus", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(strings.TrimPrefix(tt.path, base), func(t *testing.T) {
			resp := env.post(t, tt.path, tt.body)
			resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
