package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// FeatureSet holds the geometric features derived from one frame.
type FeatureSet struct {
	// FingerExtension is 0 for a fully folded digit and 1 for a straight one,
	// indexed by detector.Digit.
	FingerExtension [detector.NumDigits]float64 `json:"finger_extension"`
	// Orientation is the wrist to middle-MCP angle in radians (-π..π),
	// measured in image coordinates where Y grows downward.
	Orientation float64 `json:"orientation"`
	// PalmPosition is the centroid of the wrist and the four finger MCPs.
	PalmPosition detector.Point3D `json:"palm_position"`
	// Movement is PalmPosition minus the reference frame's palm position.
	Movement detector.Point3D `json:"movement"`
}

// MovementMagnitude returns the length of the movement vector.
func (f FeatureSet) MovementMagnitude() float64 {
	return f.Movement.Norm()
}

// Extract computes features for current. When reference is nil the movement
// is zero. Extract is pure.
func Extract(current detector.HandLandmarks, reference *detector.HandLandmarks) FeatureSet {
	var f FeatureSet
	for d := detector.Thumb; d < detector.NumDigits; d++ {
		f.FingerExtension[d] = FingerExtension(current, d)
	}
	f.Orientation = Orientation(current)
	f.PalmPosition = PalmPosition(current)
	if reference != nil {
		f.Movement = f.PalmPosition.Sub(PalmPosition(*reference))
	}
	return f
}

// FingerExtension compares the direction of the digit's first segment with
// the direction of its last segment. Parallel segments give 1, segments
// folded back on each other approach 0. Zero-length segments give 0.
func FingerExtension(h detector.HandLandmarks, d detector.Digit) float64 {
	j := d.Joints()
	first := h.Points[j[1]].Sub(h.Points[j[0]])
	last := h.Points[j[3]].Sub(h.Points[j[2]])

	n1, n2 := first.Norm(), last.Norm()
	if n1 == 0 || n2 == 0 {
		return 0
	}

	cos := first.Dot(last) / (n1 * n2)
	cos = math.Max(-1, math.Min(1, cos))
	return 1 - math.Acos(cos)/math.Pi
}

// Orientation returns the angle of the wrist to middle-MCP vector.
func Orientation(h detector.HandLandmarks) float64 {
	v := h.Points[detector.MiddleMCP].Sub(h.Points[detector.Wrist])
	return math.Atan2(v.Y, v.X)
}

// PalmPosition returns the mean of the palm base landmarks.
func PalmPosition(h detector.HandLandmarks) detector.Point3D {
	var sum detector.Point3D
	for _, i := range detector.PalmBases {
		sum = sum.Add(h.Points[i])
	}
	n := float64(len(detector.PalmBases))
	return detector.Point3D{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
}
