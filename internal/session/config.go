package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/transcript"
)

// Config holds the recognition pipeline constants.
type Config struct {
	// WindowCapacity is the number of recent frames kept for feature
	// extraction.
	WindowCapacity int `mapstructure:"window_capacity"`
	// MinFrames is the window fill required before the classifier runs.
	MinFrames int `mapstructure:"min_frames"`
	// ClassifyInterval is the minimum time between classifier invocations.
	ClassifyInterval time.Duration `mapstructure:"classify_interval"`
	// ConfidenceFloor rejects weak classifications and weak consolidated
	// signs.
	ConfidenceFloor float64 `mapstructure:"confidence_floor"`
	// MergeWindow is the gap under which identical detections merge.
	MergeWindow time.Duration `mapstructure:"merge_window"`
	// MaxDetections caps the running detection list.
	MaxDetections int `mapstructure:"max_detections"`
	// MinDuration is the shortest recording that yields a detection-based
	// transcript.
	MinDuration time.Duration `mapstructure:"min_duration"`
}

// DefaultConfig returns the default pipeline constants.
func DefaultConfig() Config {
	return Config{
		WindowCapacity:   gesture.DefaultWindowCapacity,
		MinFrames:        15,
		ClassifyInterval: 500 * time.Millisecond,
		ConfidenceFloor:  gesture.DefaultConfidenceFloor,
		MergeWindow:      transcript.DefaultMergeWindow,
		MaxDetections:    transcript.DefaultMaxDetections,
		MinDuration:      transcript.DefaultMinDuration,
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.WindowCapacity <= 0 {
		errs = append(errs, fmt.Errorf("window_capacity must be positive, got %d", c.WindowCapacity))
	}
	if c.MinFrames <= 0 {
		errs = append(errs, fmt.Errorf("min_frames must be positive, got %d", c.MinFrames))
	} else if c.WindowCapacity > 0 && c.MinFrames > c.WindowCapacity {
		errs = append(errs, fmt.Errorf("min_frames %d exceeds window_capacity %d", c.MinFrames, c.WindowCapacity))
	}
	if c.ClassifyInterval < 0 {
		errs = append(errs, fmt.Errorf("classify_interval must not be negative, got %s", c.ClassifyInterval))
	}
	if c.ConfidenceFloor < 0 || c.ConfidenceFloor > 1 {
		errs = append(errs, fmt.Errorf("confidence_floor must be in [0,1], got %g", c.ConfidenceFloor))
	}
	if c.MergeWindow < 0 {
		errs = append(errs, fmt.Errorf("merge_window must not be negative, got %s", c.MergeWindow))
	}
	if c.MaxDetections <= 0 {
		errs = append(errs, fmt.Errorf("max_detections must be positive, got %d", c.MaxDetections))
	}
	if c.MinDuration < 0 {
		errs = append(errs, fmt.Errorf("min_duration must not be negative, got %s", c.MinDuration))
	}
	return errors.Join(errs...)
}

func (c Config) rules() transcript.Rules {
	return transcript.Rules{
		MergeWindow:     c.MergeWindow,
		ConfidenceFloor: c.ConfidenceFloor,
		MaxDetections:   c.MaxDetections,
	}
}
