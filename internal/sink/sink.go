// Package sink provides the display window and video file outputs for processed frames.
package sink

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrWriterNotOpen is returned when the video file could not be opened.
var ErrWriterNotOpen = errors.New("video writer is not open")

// NoKey is returned by WaitKey when no key was pressed during the wait.
const NoKey = -1

// Display shows frames and polls the keyboard.
type Display interface {
	Show(frame gocv.Mat)
	// WaitKey waits up to delayMs for a key press and returns its code, or NoKey.
	WaitKey(delayMs int) int
	Close() error
}

// FrameWriter appends frames to an output.
type FrameWriter interface {
	Write(frame gocv.Mat) error
	Close() error
}

// Window is a Display backed by an OpenCV highgui window.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a named window.
func NewWindow(name string) *Window {
	return &Window{window: gocv.NewWindow(name)}
}

// Show updates the window with frame.
func (w *Window) Show(frame gocv.Mat) {
	w.window.IMShow(frame)
}

// WaitKey waits up to delayMs for a key press. It also lets the window redraw.
func (w *Window) WaitKey(delayMs int) int {
	return w.window.WaitKey(delayMs)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}

// VideoFileOptions describes the output file.
type VideoFileOptions struct {
	Path   string
	Codec  string
	FPS    float64
	Width  int
	Height int
	// Color is false for single-channel frames.
	Color bool
}

// VideoFile is a FrameWriter backed by an OpenCV VideoWriter.
type VideoFile struct {
	writer *gocv.VideoWriter
	opts   VideoFileOptions
}

// OpenVideoFile creates the output file and prepares it for writing.
func OpenVideoFile(opts VideoFileOptions) (*VideoFile, error) {
	writer, err := gocv.VideoWriterFile(opts.Path, opts.Codec, opts.FPS, opts.Width, opts.Height, opts.Color)
	if err != nil {
		return nil, fmt.Errorf("open video file %s: %w", opts.Path, err)
	}

	if !writer.IsOpened() {
		writer.Close()
		return nil, fmt.Errorf("open video file %s: %w", opts.Path, ErrWriterNotOpen)
	}

	return &VideoFile{writer: writer, opts: opts}, nil
}

// Write appends one frame. Frames must match the configured size.
func (v *VideoFile) Write(frame gocv.Mat) error {
	if frame.Cols() != v.opts.Width || frame.Rows() != v.opts.Height {
		return fmt.Errorf("frame size %dx%d does not match output %dx%d",
			frame.Cols(), frame.Rows(), v.opts.Width, v.opts.Height)
	}
	return v.writer.Write(frame)
}

// Close flushes and closes the file.
func (v *VideoFile) Close() error {
	return v.writer.Close()
}
