package app

import (
	"context"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// runPipeline polls the camera until ctx is done or the camera is
// exhausted, feeding the primary hand of every frame to the session. It
// returns the number of frames processed.
func (a *App) runPipeline(ctx context.Context) int {
	ticker := time.NewTicker(a.frameInterval())
	defer ticker.Stop()

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return frames
		case <-ticker.C:
		}

		frame, err := a.camera.ReadFrame()
		if err != nil {
			if isEndOfStream(err) {
				return frames
			}
			a.log.WithError(err).Warn("error reading frame")
			continue
		}

		hands, err := a.detector.Detect(frame)
		frame.Close()
		if err != nil {
			// A failed detection is a frame without a hand.
			a.log.WithError(err).Debug("hand detection failed")
			hands = nil
		}

		a.session.Observe(ctx, detector.PrimaryHand(hands))
		frames++
	}
}
