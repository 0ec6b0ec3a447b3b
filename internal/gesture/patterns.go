package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

// Pattern is one named geometric condition over a FeatureSet.
type Pattern interface {
	Name() string
	Matches(f FeatureSet) bool
}

// FingerPattern requires some digits to be extended and others curled.
// Digits in neither list are ignored.
type FingerPattern struct {
	ID          string
	Extended    []detector.Digit
	Curled      []detector.Digit
	ExtendedMin float64
	CurledMax   float64
}

// Name returns the pattern name.
func (p FingerPattern) Name() string { return p.ID }

// Matches reports whether every listed digit meets its threshold.
func (p FingerPattern) Matches(f FeatureSet) bool {
	for _, d := range p.Extended {
		if f.FingerExtension[d] < p.ExtendedMin {
			return false
		}
	}
	for _, d := range p.Curled {
		if f.FingerExtension[d] > p.CurledMax {
			return false
		}
	}
	return true
}

// Range is a closed interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// OrientationPattern matches when the hand orientation falls into any of
// its ranges. Several ranges express bands that wrap around ±π.
type OrientationPattern struct {
	ID     string
	Ranges []Range
}

// Name returns the pattern name.
func (p OrientationPattern) Name() string { return p.ID }

// Matches reports whether the orientation is inside one of the ranges.
func (p OrientationPattern) Matches(f FeatureSet) bool {
	for _, r := range p.Ranges {
		if r.Contains(f.Orientation) {
			return true
		}
	}
	return false
}

// PositionPattern bounds the palm centroid within the image.
type PositionPattern struct {
	ID string
	X  Range
	Y  Range
}

// Name returns the pattern name.
func (p PositionPattern) Name() string { return p.ID }

// Matches reports whether the palm centroid lies inside the box.
func (p PositionPattern) Matches(f FeatureSet) bool {
	return p.X.Contains(f.PalmPosition.X) && p.Y.Contains(f.PalmPosition.Y)
}

// MovementPattern bounds the palm displacement against the reference frame.
// Min is inclusive and Max exclusive so that "still" and "moving" can share
// a boundary without overlapping.
type MovementPattern struct {
	ID  string
	Min float64
	Max float64
}

// Name returns the pattern name.
func (p MovementPattern) Name() string { return p.ID }

// Matches reports whether the movement magnitude lies in [Min, Max).
func (p MovementPattern) Matches(f FeatureSet) bool {
	m := f.MovementMagnitude()
	return m >= p.Min && m < p.Max
}

// Rule is one vocabulary entry compiled for matching: all patterns must hold
// for the sign to be reported with its fixed confidence.
type Rule struct {
	Sign       string
	Patterns   []Pattern
	Confidence float64
}

// Match returns the rule confidence when every pattern matches.
func (r Rule) Match(f FeatureSet) (float64, bool) {
	for _, p := range r.Patterns {
		if !p.Matches(f) {
			return 0, false
		}
	}
	return r.Confidence, true
}

// String is used in debug logs.
func (r Rule) String() string {
	names := make([]string, len(r.Patterns))
	for i, p := range r.Patterns {
		names[i] = p.Name()
	}
	return fmt.Sprintf("%s%v@%.2f", r.Sign, names, r.Confidence)
}
