// Package vision implements the per-frame processing pipeline: grayscale,
// resize, adaptive threshold, sharpen, contour extraction and contour drawing.
package vision

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

var (
	// ErrEmptyFrame is returned when Process is handed an empty Mat.
	ErrEmptyFrame = errors.New("frame is empty")
	// ErrUnsupportedFrame is returned for frames that are not 8-bit with 1, 3 or 4 channels.
	ErrUnsupportedFrame = errors.New("unsupported frame format")
)

// Contour is the ordered boundary of one connected region in a binary frame.
type Contour []image.Point

// Options configures a Processor.
type Options struct {
	// Size is the processing size every frame is resized to.
	Size image.Point
	// BlockSize is the adaptive threshold neighbourhood size (odd, > 1).
	BlockSize int
	// C is subtracted from the neighbourhood mean before comparison.
	C float32
}

// Result holds the outputs of one processed frame.
// Callers must Close it once the frame has been consumed.
type Result struct {
	// Resized is the grayscale frame at processing size, before drawing.
	Resized gocv.Mat
	// Drawn is Resized with every contour drawn onto it.
	Drawn gocv.Mat
	// Contours are the boundaries found in the sharpened binary frame.
	Contours []Contour
}

// Close releases the Mats held by the result.
func (r *Result) Close() {
	r.Resized.Close()
	r.Drawn.Close()
}

// Processor runs the fixed transform chain on each frame it is given.
// It holds no per-frame state; the only resource is the sharpening kernel.
type Processor struct {
	opts     Options
	kernel   gocv.Mat
	prepare  []Transform
	binarize []Transform
}

// NewProcessor creates a Processor for the given options.
func NewProcessor(opts Options) *Processor {
	kernel := NewSharpenKernel()

	return &Processor{
		opts:   opts,
		kernel: kernel,
		prepare: []Transform{
			Grayscale,
			Resize(opts.Size),
		},
		binarize: []Transform{
			AdaptiveThreshold(opts.BlockSize, opts.C),
			Sharpen(kernel),
		},
	}
}

// Options returns the options the processor was created with.
func (p *Processor) Options() Options {
	return p.opts
}

// Process runs one raw frame through the pipeline.
//
// Steps:
// 1. Convert to grayscale
// 2. Resize to the processing size
// 3. Adaptive mean threshold
// 4. Sharpen with the 3x3 kernel
// 5. Find contours (flat list, simple chain compression)
// 6. Draw contours onto a copy of the resized grayscale frame
func (p *Processor) Process(raw gocv.Mat) (*Result, error) {
	if raw.Empty() {
		return nil, ErrEmptyFrame
	}
	if !Supported(raw) {
		return nil, fmt.Errorf("%w: %d channels, type %v", ErrUnsupportedFrame, raw.Channels(), raw.Type())
	}

	resized := runChain(raw, p.prepare)

	binary := runChain(resized, p.binarize)
	contours := FindContours(binary)
	binary.Close()

	drawn := resized.Clone()
	DrawContours(&drawn, contours)

	return &Result{
		Resized:  resized,
		Drawn:    drawn,
		Contours: contours,
	}, nil
}

// Supported reports whether the grayscale stage can convert frame.
func Supported(frame gocv.Mat) bool {
	switch frame.Type() {
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC3, gocv.MatTypeCV8UC4:
		return true
	}
	return false
}

// Binarize runs only the threshold and sharpen stages on an already resized
// grayscale frame. The caller owns the returned Mat.
func (p *Processor) Binarize(resized gocv.Mat) gocv.Mat {
	return runChain(resized, p.binarize)
}

// Close releases the sharpening kernel.
func (p *Processor) Close() {
	p.kernel.Close()
}

// PointCount returns the total number of points across contours.
func PointCount(contours []Contour) int {
	n := 0
	for _, c := range contours {
		n += len(c)
	}
	return n
}
