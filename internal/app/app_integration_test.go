package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/timeutil"
	"github.com/ayusman/mudra/internal/transcript"
)

// steppingDetector advances a mock clock on every detection so that frame
// timing is deterministic.
type steppingDetector struct {
	*detector.MockDetector
	clock *timeutil.MockClock
	step  time.Duration
}

func (d *steppingDetector) Detect(frame *gocv.Mat) ([]detector.HandLandmarks, error) {
	d.clock.Advance(d.step)
	return d.MockDetector.Detect(frame)
}

func newFrames(t *testing.T, n int) []*gocv.Mat {
	t.Helper()
	frames := make([]*gocv.Mat, n)
	for i := range frames {
		m := gocv.NewMatWithSize(48, 64, gocv.MatTypeCV8UC3)
		frames[i] = &m
		t.Cleanup(func() { m.Close() })
	}
	return frames
}

func newTestSession(t *testing.T, clock *timeutil.MockClock) *session.Session {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s, err := session.New("live", session.DefaultConfig(), session.WithClock(clock), session.WithLogger(logger))
	require.NoError(t, err)
	return s
}

func TestApp_RecognizesSign(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := newTestSession(t, clock)

	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.OpenPalmLandmarks()})
	det := &steppingDetector{MockDetector: mock, clock: clock, step: 100 * time.Millisecond}

	cam := capture.NewMockCamera(newFrames(t, 40), false)
	logger, _ := test.NewNullLogger()
	a := New(Config{FrameInterval: time.Millisecond}, cam, det, s, logger)

	got, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 40, mock.Calls())
	assert.False(t, cam.IsOpen(), "camera closed after run")
	assert.Equal(t, transcript.StatusDetected, got.Summary.Status)
	assert.True(t, strings.HasPrefix(got.Text, "I want to make a complaint. greeting.\n"))
	assert.Equal(t, session.StateFinalizing, s.State())
}

func TestApp_NoHandsFallsBack(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := newTestSession(t, clock)

	mock := detector.NewMockDetector()
	det := &steppingDetector{MockDetector: mock, clock: clock, step: 200 * time.Millisecond}
	cam := capture.NewMockCamera(newFrames(t, 25), false)

	got, err := New(Config{FrameInterval: time.Millisecond}, cam, det, s, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, transcript.StatusNoSigns, got.Summary.Status)
	assert.Contains(t, got.Text, "Duration: 00:05\n")
}

func TestApp_DetectorErrorsAreDegraded(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := newTestSession(t, clock)

	mock := detector.NewMockDetector()
	mock.SetError(errors.New("inference failed"))
	cam := capture.NewMockCamera(newFrames(t, 5), false)

	_, err := New(Config{FrameInterval: time.Millisecond}, cam, mock, s, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, mock.Calls())
	assert.False(t, s.Snapshot().HandPresent)
}

func TestApp_ModelUnavailable(t *testing.T) {
	s := newTestSession(t, timeutil.NewMockClock(time.Now()))
	cam := capture.NewMockCamera(nil, false)

	_, err := New(Config{}, cam, nil, s, nil).Run(context.Background())
	assert.ErrorIs(t, err, session.ErrModelUnavailable)
	assert.False(t, cam.IsOpen())
}

func TestApp_StopsOnCancel(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s := newTestSession(t, clock)

	mock := detector.NewMockDetector()
	mock.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})
	cam := capture.NewMockCamera(newFrames(t, 1), true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := New(Config{FrameInterval: time.Millisecond}, cam, mock, s, nil).Run(ctx)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.True(t, s.Snapshot().Stopped)
}

func TestApp_DurationBound(t *testing.T) {
	s := newTestSession(t, timeutil.NewMockClock(time.Now()))
	mock := detector.NewMockDetector()
	cam := capture.NewMockCamera(newFrames(t, 1), true)

	begin := time.Now()
	_, err := New(Config{Duration: 30 * time.Millisecond, FrameInterval: time.Millisecond}, cam, mock, s, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Less(t, time.Since(begin), 5*time.Second)
	assert.Positive(t, mock.Calls())
}
