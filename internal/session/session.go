// Package session drives one recognition session: frames in, classified
// signs accumulated, a transcript out on finalize.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/observe"
	"github.com/ayusman/mudra/internal/timeutil"
	"github.com/ayusman/mudra/internal/transcript"
)

var (
	// ErrInvalidTransition is returned when a control signal does not apply
	// to the session's current state.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrModelUnavailable is returned by Start while the landmark model has
	// not signalled readiness.
	ErrModelUnavailable = errors.New("landmark model unavailable")
)

// State is a session lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateDetecting  State = "detecting"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
	StateConfirmed  State = "confirmed"
)

// FrameResult describes what the session did with one frame.
type FrameResult struct {
	State       State `json:"state"`
	HandPresent bool  `json:"hand_present"`
	// Features is set whenever a hand was present in detecting or recording.
	Features *gesture.FeatureSet `json:"features,omitempty"`
	// Classification is set when the throttle gate let the classifier run.
	Classification *gesture.Classification `json:"classification,omitempty"`
	// Recorded reports whether the classification was added to the
	// detection list.
	Recorded bool `json:"recorded"`
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID              string                     `json:"id"`
	State           State                      `json:"state"`
	ModelReady      bool                       `json:"model_ready"`
	HandPresent     bool                       `json:"hand_present"`
	Stopped         bool                       `json:"stopped"`
	WindowSize      int                        `json:"window_size"`
	Detections      []transcript.SignDetection `json:"detections"`
	TotalDetections int                        `json:"total_detections"`
	Elapsed         time.Duration              `json:"elapsed"`
	Transcript      *transcript.Transcript     `json:"transcript,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the time source. Defaults to the wall clock.
func WithClock(c timeutil.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

// WithMetrics records pipeline metrics to m.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithVocabulary replaces the built-in vocabulary.
func WithVocabulary(v *gesture.Vocabulary) Option {
	return func(s *Session) { s.vocab = v }
}

// Session is one recognition session. Its methods are safe for concurrent
// use; frames and control signals are applied in the order they acquire
// the session.
type Session struct {
	mu sync.Mutex

	id         string
	cfg        Config
	clock      timeutil.Clock
	log        logrus.FieldLogger
	metrics    *observe.Metrics
	vocab      *gesture.Vocabulary
	classifier *gesture.Classifier
	synth      *transcript.Synthesizer

	state          State
	modelReady     bool
	handPresent    bool
	stopped        bool
	window         *gesture.Window
	detections     *transcript.DetectionLog
	lastClassified time.Time
	startedAt      time.Time
	stoppedAt      time.Time
	result         *transcript.Transcript
}

// New creates an idle session.
func New(id string, cfg Config, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid session config: %w", err)
	}

	s := &Session{
		id:    id,
		cfg:   cfg,
		clock: timeutil.RealClock{},
		log:   logrus.StandardLogger(),
		state: StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.vocab == nil {
		s.vocab = gesture.DefaultVocabulary()
	}
	s.log = s.log.WithField("session", id)
	s.classifier = gesture.NewClassifier(s.vocab, cfg.ConfidenceFloor)
	s.synth = transcript.NewSynthesizer(s.vocab, cfg.MinDuration)
	s.window = gesture.NewWindow(cfg.WindowCapacity)
	s.detections = transcript.NewDetectionLog(cfg.rules())
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// SetModelReady records landmark model availability. A ready model moves an
// idle session to detecting; losing it moves a detecting session back to
// idle. A recording session keeps recording but classifies nothing until
// the model is ready again.
func (s *Session) SetModelReady(ready bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.modelReady = ready
	switch {
	case ready && s.state == StateIdle:
		s.transition(StateDetecting)
	case !ready && s.state == StateDetecting:
		s.transition(StateIdle)
	}
	if !ready {
		s.log.Warn("landmark model unavailable")
	}
	return s.state
}

// Start begins a fresh recording, clearing the frame window and the
// detection list.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.modelReady {
		return ErrModelUnavailable
	}
	if s.state != StateDetecting {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, s.state)
	}

	s.reset()
	s.startedAt = s.clock.Now()
	s.transition(StateRecording)
	return nil
}

// Observe feeds one frame. A nil hand means no hand was detected: the
// window is left untouched and the session reports it is not currently
// detecting a hand.
func (s *Session) Observe(ctx context.Context, hand *detector.HandLandmarks) FrameResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handPresent = hand != nil
	if s.metrics != nil {
		s.metrics.RecordFrame(ctx, s.handPresent)
	}

	res := FrameResult{State: s.state, HandPresent: s.handPresent}
	if hand == nil {
		return res
	}

	switch {
	case s.state == StateDetecting:
		f := gesture.Extract(*hand, nil)
		res.Features = &f
	case s.state == StateRecording && !s.stopped:
		s.window.Push(*hand)
		s.observeRecording(ctx, *hand, &res)
	}
	return res
}

func (s *Session) observeRecording(ctx context.Context, hand detector.HandLandmarks, res *FrameResult) {
	begin := time.Now()
	ref, _ := s.window.Oldest()
	f := gesture.Extract(hand, &ref)
	res.Features = &f

	now := s.clock.Now()
	if !s.modelReady || !s.shouldClassify(now) {
		return
	}
	s.lastClassified = now

	c := s.classifier.Classify(f)
	res.Classification = &c
	if s.metrics != nil {
		s.metrics.RecordClassification(ctx, c.Sign, time.Since(begin))
	}
	if !c.Known() {
		return
	}

	merged := s.detections.Record(transcript.SignDetection{
		Sign:       c.Sign,
		Confidence: c.Confidence,
		Timestamp:  now,
	})
	res.Recorded = true
	s.log.WithFields(logrus.Fields{
		"sign":       c.Sign,
		"confidence": c.Confidence,
		"merged":     merged,
	}).Debug("sign detected")
}

// shouldClassify is the throttle gate.
func (s *Session) shouldClassify(now time.Time) bool {
	if s.window.Len() < s.cfg.MinFrames {
		return false
	}
	return s.lastClassified.IsZero() || now.Sub(s.lastClassified) >= s.cfg.ClassifyInterval
}

// Stop halts input. Frames observed afterwards are ignored; the collected
// detections stay available to Finalize. Stopping twice is a no-op.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return fmt.Errorf("%w: stop from %s", ErrInvalidTransition, s.state)
	}
	s.stop()
	return nil
}

func (s *Session) stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.stoppedAt = s.clock.Now()
	s.log.WithField("detections", s.detections.Len()).Debug("recording stopped")
}

// Finalize consolidates the collected detections and renders the
// transcript. A session that was not stopped is stopped first.
func (s *Session) Finalize(ctx context.Context) (transcript.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return transcript.Transcript{}, fmt.Errorf("%w: finalize from %s", ErrInvalidTransition, s.state)
	}
	s.stop()
	s.transition(StateFinalizing)

	signs := transcript.Consolidate(s.detections.Entries(), s.cfg.rules())
	t := s.synth.Render(signs, s.detections.Total(), s.stoppedAt.Sub(s.startedAt))
	s.result = &t

	if s.metrics != nil {
		s.metrics.RecordFinalized(ctx, t.Summary.Fallback())
	}
	s.log.WithFields(logrus.Fields{
		"status": t.Summary.Status,
		"signs":  len(signs),
	}).Info("session finalized")
	return t, nil
}

// Confirm accepts the finalized transcript.
func (s *Session) Confirm() (transcript.Transcript, error) {
	return s.ConfirmWith(nil)
}

// ConfirmWith hands the finalized transcript to commit and accepts it only
// if commit succeeds. On a commit error the session stays finalizing so the
// confirmation can be retried.
func (s *Session) ConfirmWith(commit func(transcript.Transcript) error) (transcript.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateFinalizing {
		return transcript.Transcript{}, fmt.Errorf("%w: confirm from %s", ErrInvalidTransition, s.state)
	}
	if commit != nil {
		if err := commit(*s.result); err != nil {
			return transcript.Transcript{}, err
		}
	}
	s.transition(StateConfirmed)
	return *s.result, nil
}

// Discard drops everything collected and returns the session to idle. If
// the model is still ready the session moves on to detecting, ready for a
// retake.
func (s *Session) Discard() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	s.transition(StateIdle)
	if s.modelReady {
		s.transition(StateDetecting)
	}
	return s.state
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the session's observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:              s.id,
		State:           s.state,
		ModelReady:      s.modelReady,
		HandPresent:     s.handPresent,
		Stopped:         s.stopped,
		WindowSize:      s.window.Len(),
		Detections:      s.detections.Entries(),
		TotalDetections: s.detections.Total(),
	}
	switch {
	case s.startedAt.IsZero():
	case s.stopped:
		snap.Elapsed = s.stoppedAt.Sub(s.startedAt)
	default:
		snap.Elapsed = s.clock.Now().Sub(s.startedAt)
	}
	if s.result != nil {
		t := *s.result
		snap.Transcript = &t
	}
	return snap
}

func (s *Session) reset() {
	s.window.Clear()
	s.detections.Reset()
	s.lastClassified = time.Time{}
	s.startedAt = time.Time{}
	s.stoppedAt = time.Time{}
	s.stopped = false
	s.result = nil
}

func (s *Session) transition(to State) {
	if s.state == to {
		return
	}
	s.log.WithFields(logrus.Fields{"from": s.state, "to": to}).Debug("session transition")
	s.state = to
}
