// Package app runs live recognition: camera frames go through the landmark
// detector into a recognition session.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/transcript"
)

// Config holds configuration options for a live run.
type Config struct {
	// Duration bounds the recording. Zero records until the context is
	// cancelled or the camera runs out of frames.
	Duration time.Duration
	// FrameInterval overrides the polling interval derived from the
	// camera FPS.
	FrameInterval time.Duration
}

// App drives one session from a camera.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	session  *session.Session
	log      logrus.FieldLogger
}

// New creates an App. A nil detector means the landmark model is
// unavailable and Run fails with session.ErrModelUnavailable.
func New(config Config, cam capture.Camera, det detector.Detector, s *session.Session, log logrus.FieldLogger) *App {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &App{
		config:   config,
		camera:   cam,
		detector: det,
		session:  s,
		log:      log.WithField("session", s.ID()),
	}
}

// Run records until the configured duration elapses, ctx is cancelled or
// the camera is exhausted, then finalizes the session.
func (a *App) Run(ctx context.Context) (transcript.Transcript, error) {
	a.session.SetModelReady(a.detector != nil)
	if err := a.session.Start(); err != nil {
		return transcript.Transcript{}, err
	}

	if err := a.camera.Open(); err != nil {
		a.session.Discard()
		return transcript.Transcript{}, fmt.Errorf("open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			a.log.WithError(err).Warn("error closing camera")
		}
	}()

	runCtx := ctx
	if a.config.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.config.Duration)
		defer cancel()
	}

	a.log.Info("recording started")
	frames := a.runPipeline(runCtx)

	// Stop is observed before finalize so no late frame is classified.
	if err := a.session.Stop(); err != nil {
		return transcript.Transcript{}, err
	}
	a.log.WithField("frames", frames).Info("recording stopped")

	// Finalize must run even when the caller's context was what ended the
	// recording.
	return a.session.Finalize(context.WithoutCancel(ctx))
}

func (a *App) frameInterval() time.Duration {
	if a.config.FrameInterval > 0 {
		return a.config.FrameInterval
	}
	fps := a.camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

func isEndOfStream(err error) bool {
	return errors.Is(err, capture.ErrEndOfStream)
}
