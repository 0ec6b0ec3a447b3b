package transcript

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// DefaultMinDuration is the shortest session that yields a detection-based
// transcript.
const DefaultMinDuration = 3 * time.Second

// Status describes how a transcript was produced.
type Status string

const (
	StatusDetected Status = "Signs detected"
	StatusNoSigns  Status = "No signs detected"
	StatusTooShort Status = "Recording too short"
)

// Keywords maps a sign identifier to the phrase it contributes to a
// transcript. *gesture.Vocabulary satisfies it.
type Keywords interface {
	Keyword(sign string) string
}

// SignConfidence is one consolidated sign in a transcript summary.
type SignConfidence struct {
	Sign       string  `json:"sign"`
	Keyword    string  `json:"keyword"`
	Confidence float64 `json:"confidence"`
}

// Summary is the structured part of a rendered transcript.
type Summary struct {
	Duration          time.Duration    `json:"duration"`
	TotalDetections   int              `json:"total_detections"`
	UniqueSigns       int              `json:"unique_signs"`
	AverageConfidence float64          `json:"average_confidence"`
	Signs             []SignConfidence `json:"signs"`
	Status            Status           `json:"status"`
}

// Fallback reports whether the transcript is the manual-completion template.
func (s Summary) Fallback() bool {
	return s.Status != StatusDetected
}

// Transcript is the rendered complaint text with its summary.
type Transcript struct {
	Text    string  `json:"text"`
	Summary Summary `json:"summary"`
}

// Synthesizer turns a consolidated sign sequence into complaint text.
type Synthesizer struct {
	keywords    Keywords
	minDuration time.Duration
}

// NewSynthesizer creates a synthesizer. A nil keywords source renders sign
// identifiers verbatim.
func NewSynthesizer(keywords Keywords, minDuration time.Duration) *Synthesizer {
	if minDuration < 0 {
		minDuration = 0
	}
	return &Synthesizer{keywords: keywords, minDuration: minDuration}
}

// Render produces the transcript for a session. signs must already be
// consolidated; totalDetections is the raw classifier output count.
func (s *Synthesizer) Render(signs []ConsolidatedSign, totalDetections int, duration time.Duration) Transcript {
	summary := s.summarize(signs, totalDetections, duration)

	var text string
	if summary.Fallback() {
		text = renderFallback(summary)
	} else {
		text = renderDetected(summary)
	}
	return Transcript{Text: text, Summary: summary}
}

func (s *Synthesizer) summarize(signs []ConsolidatedSign, total int, duration time.Duration) Summary {
	summary := Summary{
		Duration:        duration,
		TotalDetections: total,
		Signs:           make([]SignConfidence, 0, len(signs)),
	}

	unique := make(map[string]struct{}, len(signs))
	confidences := make([]float64, 0, len(signs))
	for _, sign := range signs {
		unique[sign.Sign] = struct{}{}
		confidences = append(confidences, sign.Confidence)
		summary.Signs = append(summary.Signs, SignConfidence{
			Sign:       sign.Sign,
			Keyword:    s.keyword(sign.Sign),
			Confidence: sign.Confidence,
		})
	}
	summary.UniqueSigns = len(unique)
	if len(confidences) > 0 {
		summary.AverageConfidence = stat.Mean(confidences, nil)
	}

	switch {
	case len(signs) == 0:
		summary.Status = StatusNoSigns
	case duration < s.minDuration:
		summary.Status = StatusTooShort
	default:
		summary.Status = StatusDetected
	}
	return summary
}

func (s *Synthesizer) keyword(sign string) string {
	if s.keywords == nil {
		return sign
	}
	return s.keywords.Keyword(sign)
}

func renderDetected(summary Summary) string {
	var b strings.Builder

	keywords := make([]string, len(summary.Signs))
	for i, sign := range summary.Signs {
		keywords[i] = sign.Keyword
	}
	fmt.Fprintf(&b, "I want to make a complaint. %s.", strings.Join(keywords, " "))
	b.WriteString("\n\n---\n")
	fmt.Fprintf(&b, "Duration: %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(&b, "Total detections: %d\n", summary.TotalDetections)
	fmt.Fprintf(&b, "Unique signs: %d\n", summary.UniqueSigns)
	fmt.Fprintf(&b, "Average confidence: %d%%\n", percent(summary.AverageConfidence))
	b.WriteString("Detected signs:")
	for _, sign := range summary.Signs {
		fmt.Fprintf(&b, "\n  %s: %d%%", sign.Sign, percent(sign.Confidence))
	}
	return b.String()
}

func renderFallback(summary Summary) string {
	var b strings.Builder

	b.WriteString("I would like to file a complaint.\n\n---\n")
	fmt.Fprintf(&b, "Duration: %s\n", formatDuration(summary.Duration))
	b.WriteString("Technology: Rule-based hand sign recognition\n")
	fmt.Fprintf(&b, "Status: %s\n\n", summary.Status)
	b.WriteString("Please complete the details of your complaint manually.")
	return b.String()
}

// formatDuration renders d as zero-padded mm:ss, truncating partial seconds.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func percent(v float64) int {
	return int(math.Round(v * 100))
}
