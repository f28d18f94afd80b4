package vision

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Threshold and drawing constants.
const (
	// MaxBinaryValue is the foreground value written by the threshold stage.
	MaxBinaryValue = 255
	// ContourThickness is the line width used when drawing contours.
	ContourThickness = 1
)

// HighlightColor is the colour contours are drawn in. On a single-channel
// frame OpenCV only uses the first component.
var HighlightColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// Transform writes the result of one pipeline stage into dst.
// Transforms never modify src.
type Transform func(src gocv.Mat, dst *gocv.Mat)

// Grayscale converts a colour frame to a single channel using OpenCV's
// luminance-weighted conversion. Single-channel input is copied as-is.
// src must be 8-bit with 1, 3 or 4 channels; see Supported.
func Grayscale(src gocv.Mat, dst *gocv.Mat) {
	switch src.Channels() {
	case 1:
		src.CopyTo(dst)
	case 4:
		gocv.CvtColor(src, dst, gocv.ColorBGRAToGray)
	default:
		gocv.CvtColor(src, dst, gocv.ColorBGRToGray)
	}
}

// Resize returns a Transform that scales to exactly size, ignoring aspect ratio.
func Resize(size image.Point) Transform {
	return func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Resize(src, dst, size, 0, 0, gocv.InterpolationLinear)
	}
}

// AdaptiveThreshold returns a Transform that binarizes each pixel against the
// mean of its blockSize x blockSize neighbourhood minus c.
func AdaptiveThreshold(blockSize int, c float32) Transform {
	return func(src gocv.Mat, dst *gocv.Mat) {
		gocv.AdaptiveThreshold(src, dst, MaxBinaryValue, gocv.AdaptiveThresholdMean, gocv.ThresholdBinary, blockSize, c)
	}
}

// NewSharpenKernel builds the 3x3 sharpening kernel
//
//	 0 -1  0
//	-1  5 -1
//	 0 -1  0
//
// The caller owns the returned Mat.
func NewSharpenKernel() gocv.Mat {
	weights := [3][3]float32{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	}

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	for row := range weights {
		for col, w := range weights[row] {
			kernel.SetFloatAt(row, col, w)
		}
	}
	return kernel
}

// Sharpen returns a Transform convolving the frame with kernel, keeping the
// source depth.
func Sharpen(kernel gocv.Mat) Transform {
	return func(src gocv.Mat, dst *gocv.Mat) {
		gocv.Filter2D(src, dst, -1, kernel, image.Pt(-1, -1), 0, gocv.BorderDefault)
	}
}

// FindContours lists every boundary in a binary frame without hierarchy,
// compressing straight runs to their end points.
func FindContours(binary gocv.Mat) []Contour {
	found := gocv.FindContours(binary, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer found.Close()

	points := found.ToPoints()
	contours := make([]Contour, 0, len(points))
	for _, p := range points {
		contours = append(contours, Contour(p))
	}
	return contours
}

// DrawContours draws all contours onto img in place.
func DrawContours(img *gocv.Mat, contours []Contour) {
	if len(contours) == 0 {
		return
	}

	points := make([][]image.Point, len(contours))
	for i, c := range contours {
		points[i] = c
	}

	pv := gocv.NewPointsVectorFromPoints(points)
	defer pv.Close()

	gocv.DrawContours(img, pv, -1, HighlightColor, ContourThickness)
}

// runChain applies transforms in order and returns a new Mat owned by the
// caller. src is left untouched.
func runChain(src gocv.Mat, transforms []Transform) gocv.Mat {
	current := src.Clone()
	for _, t := range transforms {
		next := gocv.NewMat()
		t(current, &next)
		current.Close()
		current = next
	}
	return current
}
