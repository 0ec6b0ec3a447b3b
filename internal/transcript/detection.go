// Package transcript consolidates raw sign detections and renders them into
// a complaint transcript.
package transcript

import "time"

// Pipeline defaults for consolidation.
const (
	DefaultMergeWindow     = 2000 * time.Millisecond
	DefaultConfidenceFloor = 0.4
	DefaultMaxDetections   = 20
)

// SignDetection is one classifier output. LastSeen is the time of the most
// recent detection folded into this entry; it equals Timestamp until a
// repeat is merged in.
type SignDetection struct {
	Sign       string    `json:"sign"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	LastSeen   time.Time `json:"last_seen"`
}

// ConsolidatedSign is a detection whose confidence is the maximum observed
// over a run of adjacent identical detections.
type ConsolidatedSign = SignDetection

// Rules parameterises merging and filtering.
type Rules struct {
	// MergeWindow is the largest gap between two identical detections that
	// still counts as one continuous gesture.
	MergeWindow time.Duration
	// ConfidenceFloor drops consolidated entries below it.
	ConfidenceFloor float64
	// MaxDetections caps the running detection list; the oldest entry is
	// dropped on overflow.
	MaxDetections int
}

// DefaultRules returns the default consolidation rules.
func DefaultRules() Rules {
	return Rules{
		MergeWindow:     DefaultMergeWindow,
		ConfidenceFloor: DefaultConfidenceFloor,
		MaxDetections:   DefaultMaxDetections,
	}
}

// DetectionLog is the bounded running list of detections for one session.
// Repeats of the previous sign within the merge window are folded into the
// previous entry instead of being appended.
type DetectionLog struct {
	rules   Rules
	entries []SignDetection
	total   int
}

// NewDetectionLog creates an empty log.
func NewDetectionLog(rules Rules) *DetectionLog {
	if rules.MaxDetections <= 0 {
		rules.MaxDetections = DefaultMaxDetections
	}
	return &DetectionLog{
		rules:   rules,
		entries: make([]SignDetection, 0, rules.MaxDetections),
	}
}

// Record adds d to the log and reports whether it was merged into the
// previous entry.
func (l *DetectionLog) Record(d SignDetection) bool {
	if d.LastSeen.IsZero() {
		d.LastSeen = d.Timestamp
	}
	l.total++

	if n := len(l.entries); n > 0 && mergeable(l.entries[n-1], d, l.rules.MergeWindow) {
		l.entries[n-1] = merge(l.entries[n-1], d)
		return true
	}

	if len(l.entries) == l.rules.MaxDetections {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.entries = append(l.entries, d)
	return false
}

// Entries returns a copy of the log in insertion order.
func (l *DetectionLog) Entries() []SignDetection {
	out := make([]SignDetection, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries currently held.
func (l *DetectionLog) Len() int { return len(l.entries) }

// Total returns the number of detections recorded, merged ones included.
func (l *DetectionLog) Total() int { return l.total }

// Reset empties the log.
func (l *DetectionLog) Reset() {
	l.entries = l.entries[:0]
	l.total = 0
}

func mergeable(prev, next SignDetection, window time.Duration) bool {
	return prev.Sign == next.Sign && next.Timestamp.Sub(prev.LastSeen) < window
}

func merge(prev, next SignDetection) SignDetection {
	prev.Confidence = max(prev.Confidence, next.Confidence)
	if next.LastSeen.After(prev.LastSeen) {
		prev.LastSeen = next.LastSeen
	}
	return prev
}
