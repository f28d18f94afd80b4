package sink

import (
	"sync"

	"gocv.io/x/gocv"
)

// RecordingDisplay is a Display for tests. It counts frames and replays a
// scripted sequence of key presses, returning NoKey once the script runs out.
type RecordingDisplay struct {
	mu     sync.Mutex
	shown  int
	keys   []int
	waits  int
	closed bool
	sizes  [][2]int
}

// NewRecordingDisplay creates a RecordingDisplay returning keys in order from WaitKey.
func NewRecordingDisplay(keys ...int) *RecordingDisplay {
	return &RecordingDisplay{keys: keys}
}

func (d *RecordingDisplay) Show(frame gocv.Mat) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown++
	d.sizes = append(d.sizes, [2]int{frame.Cols(), frame.Rows()})
}

func (d *RecordingDisplay) WaitKey(delayMs int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.waits++
	if len(d.keys) == 0 {
		return NoKey
	}
	key := d.keys[0]
	d.keys = d.keys[1:]
	return key
}

func (d *RecordingDisplay) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Shown returns the number of frames shown.
func (d *RecordingDisplay) Shown() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shown
}

// Waits returns the number of WaitKey calls.
func (d *RecordingDisplay) Waits() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.waits
}

// Closed reports whether Close was called.
func (d *RecordingDisplay) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Sizes returns the width and height of every frame shown.
func (d *RecordingDisplay) Sizes() [][2]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][2]int, len(d.sizes))
	copy(out, d.sizes)
	return out
}

// RecordingWriter is a FrameWriter for tests that counts written frames.
type RecordingWriter struct {
	mu       sync.Mutex
	written  int
	channels []int
	err      error
	closed   bool
}

// NewRecordingWriter creates an empty RecordingWriter.
func NewRecordingWriter() *RecordingWriter {
	return &RecordingWriter{}
}

// SetError makes every subsequent Write fail with err.
func (w *RecordingWriter) SetError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.err = err
}

func (w *RecordingWriter) Write(frame gocv.Mat) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return w.err
	}
	w.written++
	w.channels = append(w.channels, frame.Channels())
	return nil
}

func (w *RecordingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// Written returns the number of frames written.
func (w *RecordingWriter) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Channels returns the channel count of every frame written.
func (w *RecordingWriter) Channels() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int, len(w.channels))
	copy(out, w.channels)
	return out
}

// Closed reports whether Close was called.
func (w *RecordingWriter) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
