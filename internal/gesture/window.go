// Package gesture turns hand landmarks into geometric features and matches
// them against the sign vocabulary.
package gesture

import "github.com/ayusman/mudra/internal/detector"

// DefaultWindowCapacity holds roughly one second of frames at 30 fps.
const DefaultWindowCapacity = 30

// Window is a fixed-capacity FIFO of recent hand frames. Pushing into a full
// window evicts the oldest frame.
type Window struct {
	frames []detector.HandLandmarks
	start  int
	size   int
}

// NewWindow creates a Window holding at most capacity frames. Non-positive
// capacities fall back to DefaultWindowCapacity.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &Window{frames: make([]detector.HandLandmarks, capacity)}
}

// Push appends a frame, evicting the oldest one once the window is full.
func (w *Window) Push(h detector.HandLandmarks) {
	capacity := len(w.frames)
	if w.size < capacity {
		w.frames[(w.start+w.size)%capacity] = h
		w.size++
		return
	}
	w.frames[w.start] = h
	w.start = (w.start + 1) % capacity
}

// Len returns the number of buffered frames.
func (w *Window) Len() int { return w.size }

// Cap returns the window capacity.
func (w *Window) Cap() int { return len(w.frames) }

// Snapshot returns a copy of the buffered frames, oldest first.
func (w *Window) Snapshot() []detector.HandLandmarks {
	out := make([]detector.HandLandmarks, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.frames[(w.start+i)%len(w.frames)]
	}
	return out
}

// Newest returns the most recently pushed frame.
func (w *Window) Newest() (detector.HandLandmarks, bool) {
	if w.size == 0 {
		return detector.HandLandmarks{}, false
	}
	return w.frames[(w.start+w.size-1)%len(w.frames)], true
}

// Oldest returns the least recently pushed frame still buffered.
func (w *Window) Oldest() (detector.HandLandmarks, bool) {
	if w.size == 0 {
		return detector.HandLandmarks{}, false
	}
	return w.frames[w.start], true
}

// Clear drops every buffered frame.
func (w *Window) Clear() {
	w.start = 0
	w.size = 0
}
