package gesture

import (
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

func classifyPose(c *Classifier, h detector.HandLandmarks, ref *detector.HandLandmarks) Classification {
	return c.Classify(Extract(h, ref))
}

func TestClassifier_DefaultVocabulary(t *testing.T) {
	c := NewClassifier(nil, DefaultConfidenceFloor)

	raised := detector.OpenPalmLandmarks().Translate(detector.Point3D{Y: -0.5})
	shift := detector.Point3D{X: -0.05}

	tests := []struct {
		name     string
		hand     detector.HandLandmarks
		moving   bool
		wantSign string
		wantConf float64
	}{
		{"open palm upright", detector.OpenPalmLandmarks(), false, "hello", 0.8},
		{"open palm raised and still", raised, false, "stop", 0.7},
		{"open palm raised and moving", raised, true, "hello", 0.8},
		{"open palm sideways", detector.Rotate(detector.OpenPalmLandmarks(), math.Pi/2), false, "thank_you", 0.65},
		{"thumbs up still", detector.ThumbsUpLandmarks(), false, "good", 0.7},
		{"thumbs up moving", detector.ThumbsUpLandmarks(), true, "help", 0.75},
		{"thumbs down", detector.Rotate(detector.ThumbsUpLandmarks(), math.Pi), false, "bad", 0.7},
		{"y shape", detector.PoseLandmarks(detector.Thumb, detector.Pinky), false, "call", 0.65},
		{"pinky only", detector.PoseLandmarks(detector.Pinky), false, "me", 0.6},
		{"index upright", detector.PoseLandmarks(detector.Index), false, "wait", 0.6},
		{"index sideways", detector.Rotate(detector.PoseLandmarks(detector.Index), math.Pi/2), false, "you", 0.6},
		{"v shape moving", detector.PoseLandmarks(detector.Index, detector.Middle), true, "problem", 0.65},
		{"v shape still", detector.PoseLandmarks(detector.Index, detector.Middle), false, "see", 0.55},
		{"fist moving", detector.FistLandmarks(), true, "yes", 0.6},
		{"fist still", detector.FistLandmarks(), false, "money", 0.5},
		{"three fingers", detector.PoseLandmarks(detector.Index, detector.Middle, detector.Ring), false, Unknown, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ref *detector.HandLandmarks
			if tt.moving {
				r := tt.hand.Translate(shift)
				ref = &r
			}

			got := classifyPose(c, tt.hand, ref)
			if got.Sign != tt.wantSign {
				t.Fatalf("sign = %q, want %q", got.Sign, tt.wantSign)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
			if got.Known() != (tt.wantSign != Unknown) {
				t.Errorf("Known() = %v", got.Known())
			}
		})
	}
}

func TestClassifier_RuleOrderShadows(t *testing.T) {
	v := DefaultVocabulary()
	openHand, _ := v.Pattern("open_hand")
	upright, _ := v.Pattern("upright")

	general := Rule{Sign: "general", Patterns: []Pattern{openHand}, Confidence: 0.6}
	specific := Rule{Sign: "specific", Patterns: []Pattern{openHand, upright}, Confidence: 0.9}

	f := Extract(detector.OpenPalmLandmarks(), nil)

	if got := NewRuleClassifier([]Rule{specific, general}, 0.4).Classify(f); got.Sign != "specific" {
		t.Errorf("specific first: got %q", got.Sign)
	}
	if got := NewRuleClassifier([]Rule{general, specific}, 0.4).Classify(f); got.Sign != "general" {
		t.Errorf("general first should shadow specific, got %q", got.Sign)
	}
}

func TestClassifier_ConfidenceFloor(t *testing.T) {
	v := DefaultVocabulary()
	openHand, _ := v.Pattern("open_hand")

	weak := Rule{Sign: "weak", Patterns: []Pattern{openHand}, Confidence: 0.3}
	strong := Rule{Sign: "strong", Patterns: []Pattern{openHand}, Confidence: 0.9}

	f := Extract(detector.OpenPalmLandmarks(), nil)

	got := NewRuleClassifier([]Rule{weak, strong}, 0.4).Classify(f)
	if got.Sign != Unknown || got.Confidence != 0 {
		t.Errorf("weak first match should yield unknown, got %+v", got)
	}

	got = NewRuleClassifier([]Rule{weak}, 0.25).Classify(f)
	if got.Sign != "weak" {
		t.Errorf("floor below rule confidence should accept it, got %+v", got)
	}

	got = NewRuleClassifier(nil, 0.4).Classify(f)
	if got.Sign != Unknown {
		t.Errorf("empty rule list should yield unknown, got %+v", got)
	}
}

func TestPatterns(t *testing.T) {
	f := FeatureSet{
		FingerExtension: [detector.NumDigits]float64{0.9, 0.8, 0.2, 0.1, 0.6},
		Orientation:     3.0,
		PalmPosition:    detector.Point3D{X: 0.3, Y: 0.2},
		Movement:        detector.Point3D{X: 0.5},
	}

	tests := []struct {
		name string
		p    Pattern
		want bool
	}{
		{"fingers match", FingerPattern{ID: "a", Extended: []detector.Digit{detector.Thumb, detector.Index}, Curled: []detector.Digit{detector.Middle}, ExtendedMin: 0.75, CurledMax: 0.5}, true},
		{"ignored digit", FingerPattern{ID: "b", Curled: []detector.Digit{detector.Ring}, ExtendedMin: 0.75, CurledMax: 0.5}, true},
		{"half bent is neither", FingerPattern{ID: "c", Curled: []detector.Digit{detector.Pinky}, ExtendedMin: 0.75, CurledMax: 0.5}, false},
		{"orientation wraps", OrientationPattern{ID: "d", Ranges: []Range{{Min: -0.5, Max: 0.5}, {Min: 2.5, Max: math.Pi}}}, true},
		{"orientation outside", OrientationPattern{ID: "e", Ranges: []Range{{Min: -2, Max: -1}}}, false},
		{"position inside", PositionPattern{ID: "f", X: Range{Min: 0, Max: 1}, Y: Range{Min: 0, Max: 0.4}}, true},
		{"position outside", PositionPattern{ID: "g", X: Range{Min: 0.5, Max: 1}, Y: Range{Min: 0, Max: 1}}, false},
		{"movement lower bound inclusive", MovementPattern{ID: "h", Min: 0.5, Max: math.Inf(1)}, true},
		{"movement upper bound exclusive", MovementPattern{ID: "i", Min: 0, Max: 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Matches(f); got != tt.want {
				t.Errorf("%s.Matches() = %v, want %v", tt.p.Name(), got, tt.want)
			}
		})
	}
}
