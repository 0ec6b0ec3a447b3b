// Package detector provides the hand landmark types produced by the external
// landmark model and the adapters that run it.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Digit identifies one finger of the hand.
type Digit int

const (
	Thumb Digit = iota
	Index
	Middle
	Ring
	Pinky
	NumDigits
)

var digitNames = [NumDigits]string{"thumb", "index", "middle", "ring", "pinky"}

// String returns the lowercase digit name.
func (d Digit) String() string {
	if d < 0 || d >= NumDigits {
		return fmt.Sprintf("digit(%d)", int(d))
	}
	return digitNames[d]
}

// ParseDigit maps a lowercase digit name back to its Digit.
func ParseDigit(name string) (Digit, bool) {
	for i, n := range digitNames {
		if n == name {
			return Digit(i), true
		}
	}
	return 0, false
}

// Joints returns the four landmark indices of the digit ordered base to tip.
func (d Digit) Joints() [4]int {
	base := 1 + 4*int(d)
	return [4]int{base, base + 1, base + 2, base + 3}
}

// PalmBases are the wrist and the four finger MCP joints. Their centroid
// approximates the palm center independent of finger pose.
var PalmBases = [5]int{Wrist, IndexMCP, MiddleMCP, RingMCP, PinkyMCP}

// ErrMalformedFrame is returned when a landmark payload does not describe
// exactly one well-formed hand.
var ErrMalformedFrame = errors.New("malformed landmark frame")

// Point3D represents a normalized landmark. X and Y are relative to the
// frame dimensions, Z is detector-relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns p - q.
func (p Point3D) Sub(q Point3D) Point3D {
	return Point3D{X: p.X - q.X, Y: p.Y - q.Y, Z: p.Z - q.Z}
}

// Add returns p + q.
func (p Point3D) Add(q Point3D) Point3D {
	return Point3D{X: p.X + q.X, Y: p.Y + q.Y, Z: p.Z + q.Z}
}

// Dot returns the scalar product of p and q.
func (p Point3D) Dot(q Point3D) float64 {
	return p.X*q.X + p.Y*q.Y + p.Z*q.Z
}

// Norm returns the Euclidean length of p.
func (p Point3D) Norm() float64 {
	return math.Sqrt(p.Dot(p))
}

// HandLandmarks represents the 21 landmarks of one tracked hand.
// A value is never mutated after it has been handed to a session.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64               `json:"score,omitempty"`
}

// Translate returns a copy of h with offset added to every landmark.
func (h HandLandmarks) Translate(offset Point3D) HandLandmarks {
	out := h
	for i := range out.Points {
		out.Points[i] = out.Points[i].Add(offset)
	}
	return out
}

// NewHandLandmarks builds a HandLandmarks from a decoded point list.
// It rejects anything other than exactly NumLandmarks finite points.
func NewHandLandmarks(points []Point3D) (*HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return nil, fmt.Errorf("%w: got %d points, want %d", ErrMalformedFrame, len(points), NumLandmarks)
	}
	h := &HandLandmarks{}
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return nil, fmt.Errorf("%w: point %d is not finite", ErrMalformedFrame, i)
		}
		h.Points[i] = p
	}
	return h, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
