package detector

import (
	"encoding/json"
	"fmt"
)

// WireHand is the JSON shape of one hand as emitted by landmark models and
// browser clients. Points is a list so that short payloads can be detected.
type WireHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness,omitempty"`
	Score      float64   `json:"score,omitempty"`
}

// FrameMessage is one detector observation: a timestamp in milliseconds and
// zero or one hand. A nil Hand is the explicit "no hand present" signal.
type FrameMessage struct {
	TimestampMs int64     `json:"t"`
	Hand        *WireHand `json:"hand"`
}

// ToHandLandmarks validates the wire hand and converts it.
func (w *WireHand) ToHandLandmarks() (*HandLandmarks, error) {
	if w == nil {
		return nil, nil
	}
	h, err := NewHandLandmarks(w.Points)
	if err != nil {
		return nil, err
	}
	h.Handedness = w.Handedness
	h.Score = w.Score
	return h, nil
}

// WireFrom converts landmarks back to the wire shape.
func WireFrom(h *HandLandmarks) *WireHand {
	if h == nil {
		return nil
	}
	return &WireHand{
		Points:     append([]Point3D(nil), h.Points[:]...),
		Handedness: h.Handedness,
		Score:      h.Score,
	}
}

// DecodeFrame parses one JSON frame message. A frame whose hand is present
// but malformed returns ErrMalformedFrame together with the timestamp so the
// caller can treat it as degraded input.
func DecodeFrame(data []byte) (*HandLandmarks, int64, error) {
	var msg FrameMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	hand, err := msg.Hand.ToHandLandmarks()
	if err != nil {
		return nil, msg.TimestampMs, err
	}
	return hand, msg.TimestampMs, nil
}
