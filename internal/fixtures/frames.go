// Package fixtures builds synthetic gocv frames for tests.
package fixtures

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Uniform returns a rows x cols BGR frame filled with a single grey level.
func Uniform(rows, cols int, level uint8) gocv.Mat {
	mat := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8UC3)
	v := float64(level)
	mat.SetTo(gocv.NewScalar(v, v, v, 0))
	return mat
}

// UniformGray returns a rows x cols single-channel frame filled with level.
func UniformGray(rows, cols int, level uint8) gocv.Mat {
	mat := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	mat.SetTo(gocv.NewScalar(float64(level), 0, 0, 0))
	return mat
}

// FilledRect returns a black single-channel frame with one white filled rectangle.
func FilledRect(rows, cols int, rect image.Rectangle) gocv.Mat {
	mat := UniformGray(rows, cols, 0)
	gocv.Rectangle(&mat, rect, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)
	return mat
}

// Gradient returns a single-channel frame whose brightness rises from left to
// right, the kind of uneven lighting adaptive thresholding is meant for.
func Gradient(rows, cols int) gocv.Mat {
	mat := gocv.NewMatWithSize(rows, cols, gocv.MatTypeCV8U)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			v := uint8(col * 255 / max(cols-1, 1))
			// Checker pattern on top of the gradient gives the threshold some edges
			if (row/8+col/8)%2 == 0 && v > 40 {
				v -= 40
			}
			mat.SetUCharAt(row, col, v)
		}
	}
	return mat
}

// VerticalLine returns a white single-channel frame with a black vertical
// line of the given width through the centre.
func VerticalLine(rows, cols, width int) gocv.Mat {
	mat := UniformGray(rows, cols, 255)
	left := cols/2 - width/2
	gocv.Rectangle(&mat, image.Rect(left, 0, left+width-1, rows-1), color.RGBA{}, -1)
	return mat
}

// Sequence returns n BGR frames of the given size with distinct grey levels.
// The caller owns every Mat.
func Sequence(n, rows, cols int) []*gocv.Mat {
	frames := make([]*gocv.Mat, 0, n)
	for i := 0; i < n; i++ {
		mat := Uniform(rows, cols, uint8(40+i*20))
		gocv.Rectangle(&mat, image.Rect(cols/4, rows/4, cols/2+i*4, rows/2+i*4), color.RGBA{R: 255, G: 255, B: 255}, -1)
		frames = append(frames, &mat)
	}
	return frames
}

// CloseAll closes every frame in frames.
func CloseAll(frames []*gocv.Mat) {
	for _, f := range frames {
		f.Close()
	}
}
