// Package replay drives a recognition session from recorded landmark
// frames, one JSON frame message per line.
package replay

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/timeutil"
	"github.com/ayusman/mudra/internal/transcript"
)

// Epoch is the wall-clock instant that frame timestamp 0 maps to.
var Epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// maxLineSize bounds a single frame message.
const maxLineSize = 1 << 20

// Result is the outcome of a replay.
type Result struct {
	Transcript transcript.Transcript      `json:"transcript"`
	Frames     int                        `json:"frames"`
	Degraded   int                        `json:"degraded"`
	Detections []transcript.SignDetection `json:"detections"`
}

// Player replays frame recordings.
type Player struct {
	cfg  session.Config
	opts []session.Option
	log  logrus.FieldLogger
}

// NewPlayer validates cfg and returns a Player. opts are applied to every
// replayed session after the player's own clock.
func NewPlayer(cfg session.Config, log logrus.FieldLogger, opts ...session.Option) (*Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Player{cfg: cfg, opts: opts, log: log}, nil
}

// Play reads frames from r until EOF. The session clock is set to each
// frame's timestamp before the frame is observed; recording stops at the
// last timestamp. Malformed lines count as frames without a hand.
func (p *Player) Play(ctx context.Context, r io.Reader) (*Result, error) {
	clock := timeutil.NewMockClock(Epoch)
	opts := append([]session.Option{session.WithClock(clock), session.WithLogger(p.log)}, p.opts...)
	s, err := session.New("replay", p.cfg, opts...)
	if err != nil {
		return nil, err
	}

	s.SetModelReady(true)
	if err := s.Start(); err != nil {
		return nil, err
	}

	res := &Result{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data := scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		hand, ts, err := detector.DecodeFrame(data)
		if err != nil {
			p.log.WithError(err).WithField("line", line).Debug("degraded frame")
			res.Degraded++
			hand = nil
		}
		if ts > 0 {
			at := Epoch.Add(time.Duration(ts) * time.Millisecond)
			if at.After(clock.Now()) {
				clock.Set(at)
			}
		}

		s.Observe(ctx, hand)
		res.Frames++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read frames: %w", err)
	}

	res.Detections = s.Snapshot().Detections
	t, err := s.Finalize(ctx)
	if err != nil {
		return nil, err
	}
	res.Transcript = t
	return res, nil
}
