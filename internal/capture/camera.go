// Package capture reads video frames from a camera or a recorded clip for
// live recognition.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings. The frame window holds about one second of
// motion at DefaultFPS.
const (
	DefaultFPS    = 30
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when reading from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")
	// ErrEndOfStream is returned once a finite source has no more frames.
	ErrEndOfStream = errors.New("end of frame stream")
	// ErrEmptyFrame is returned when a device delivers a frame without pixels.
	ErrEmptyFrame = errors.New("captured frame is empty")
)

// Camera is a source of video frames.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes the returned Mat.
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// videoCamera reads through an OpenCV VideoCapture. The source is either a
// device index or a video file path; a file is finite and reports
// ErrEndOfStream when it runs out, where a device read failure is transient.
type videoCamera struct {
	source any
	finite bool

	mu      sync.Mutex
	capture *gocv.VideoCapture
	fps     int
	frames  int
}

// NewCamera creates a Camera for the given device ID at DefaultFPS and
// DefaultWidth x DefaultHeight.
func NewCamera(deviceID int) Camera {
	return &videoCamera{source: deviceID, fps: DefaultFPS}
}

// NewVideoFile creates a Camera that plays back a recorded clip. The clip
// is paced by the caller, so FPS only sets the polling rate.
func NewVideoFile(path string) Camera {
	return &videoCamera{source: path, finite: true, fps: DefaultFPS}
}

func (c *videoCamera) String() string {
	if c.finite {
		return fmt.Sprintf("file %s", c.source)
	}
	return fmt.Sprintf("device %d", c.source)
}

// Open opens the source. Opening an open camera is a no-op.
func (c *videoCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.source)
	if err != nil {
		return fmt.Errorf("open %s: %w", c, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("open %s: source unavailable", c)
	}

	if !c.finite {
		vc.Set(gocv.VideoCaptureFrameWidth, DefaultWidth)
		vc.Set(gocv.VideoCaptureFrameHeight, DefaultHeight)
		vc.Set(gocv.VideoCaptureFPS, float64(c.fps))
	}
	c.capture = vc
	c.frames = 0
	return nil
}

// Close releases the source. Closing a closed camera is a no-op.
func (c *videoCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil
	}
	err := c.capture.Close()
	c.capture = nil
	return err
}

// ReadFrame reads the next frame.
func (c *videoCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok || mat.Empty() {
		mat.Close()
		switch {
		case c.finite:
			return nil, ErrEndOfStream
		case !ok:
			return nil, fmt.Errorf("read frame %d from %s failed", c.frames+1, c)
		default:
			return nil, ErrEmptyFrame
		}
	}
	c.frames++
	return &mat, nil
}

// SetFPS sets the polling rate. Values less than or equal to 0 are ignored.
func (c *videoCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fps = fps
	if c.capture != nil && !c.finite {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

func (c *videoCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *videoCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capture != nil
}
