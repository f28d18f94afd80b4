package vision

import (
	"errors"
	"image"
	"testing"

	"github.com/ayusman/laptopvision/internal/fixtures"
	"gocv.io/x/gocv"
)

func testOptions() Options {
	return Options{
		Size:      image.Pt(160, 120),
		BlockSize: 11,
		C:         2,
	}
}

// sameMat reports whether two single-channel Mats hold identical pixels.
func sameMat(t *testing.T, a, b gocv.Mat) bool {
	t.Helper()

	if a.Rows() != b.Rows() || a.Cols() != b.Cols() {
		return false
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	return gocv.CountNonZero(diff) == 0
}

func TestProcessor_ResizeYieldsProcessingSize(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p := NewProcessor(testOptions())
	defer p.Close()

	tests := []struct {
		name string
		rows int
		cols int
	}{
		{name: "VGA", rows: 480, cols: 640},
		{name: "HD", rows: 720, cols: 1280},
		{name: "smaller than target", rows: 60, cols: 80},
		{name: "portrait", rows: 640, cols: 360},
		{name: "exact size", rows: 120, cols: 160},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := fixtures.Uniform(tt.rows, tt.cols, 128)
			defer frame.Close()

			result, err := p.Process(frame)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			defer result.Close()

			for name, mat := range map[string]gocv.Mat{"Resized": result.Resized, "Drawn": result.Drawn} {
				if mat.Cols() != 160 || mat.Rows() != 120 {
					t.Errorf("%s size = %dx%d, want 160x120", name, mat.Cols(), mat.Rows())
				}
				if mat.Channels() != 1 {
					t.Errorf("%s channels = %d, want 1", name, mat.Channels())
				}
			}

			binary := p.Binarize(result.Resized)
			defer binary.Close()
			if binary.Cols() != 160 || binary.Rows() != 120 {
				t.Errorf("binary size = %dx%d, want 160x120", binary.Cols(), binary.Rows())
			}
		})
	}
}

func TestProcessor_EmptyFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p := NewProcessor(testOptions())
	defer p.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	result, err := p.Process(empty)
	if !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Process(empty) error = %v, want ErrEmptyFrame", err)
	}
	if result != nil {
		t.Error("Process(empty) should return a nil result")
	}
}

func TestProcessor_UnsupportedFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p := NewProcessor(testOptions())
	defer p.Close()

	tests := []struct {
		name    string
		matType gocv.MatType
	}{
		{"two channels", gocv.MatTypeCV8UC2},
		{"16-bit colour", gocv.MatTypeCV16UC3},
		{"float gray", gocv.MatTypeCV32FC1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := gocv.NewMatWithSize(240, 320, tt.matType)
			defer frame.Close()

			if Supported(frame) {
				t.Errorf("Supported(%v) = true, want false", tt.matType)
			}

			result, err := p.Process(frame)
			if !errors.Is(err, ErrUnsupportedFrame) {
				t.Errorf("Process() error = %v, want ErrUnsupportedFrame", err)
			}
			if result != nil {
				result.Close()
				t.Error("Process() should return a nil result")
			}
		})
	}
}

func TestProcessor_AcceptsGrayAndBGRA(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p := NewProcessor(testOptions())
	defer p.Close()

	gray := fixtures.UniformGray(240, 320, 90)
	defer gray.Close()

	bgra := gocv.NewMatWithSize(240, 320, gocv.MatTypeCV8UC4)
	defer bgra.Close()

	for name, frame := range map[string]gocv.Mat{"gray": gray, "bgra": bgra} {
		result, err := p.Process(frame)
		if err != nil {
			t.Fatalf("%s: Process() error = %v", name, err)
		}
		if result.Resized.Channels() != 1 {
			t.Errorf("%s: resized channels = %d, want 1", name, result.Resized.Channels())
		}
		result.Close()
	}
}

func TestProcessor_DrawsOnCopy(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	p := NewProcessor(testOptions())
	defer p.Close()

	// A bright rectangle on a mid-grey background gives the threshold an edge
	frame := fixtures.Uniform(120, 160, 100)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(40, 30, 100, 80), HighlightColor, -1)

	result, err := p.Process(frame)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	defer result.Close()

	if len(result.Contours) == 0 {
		t.Fatal("expected contours for a frame containing a rectangle")
	}

	if sameMat(t, result.Resized, result.Drawn) {
		t.Error("Drawn should differ from Resized once contours are drawn")
	}
}

func TestAdaptiveThreshold_BinaryOutput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	inputs := map[string]gocv.Mat{
		"gradient": fixtures.Gradient(120, 160),
		"uniform":  fixtures.UniformGray(120, 160, 37),
		"line":     fixtures.VerticalLine(120, 160, 5),
	}

	for name, src := range inputs {
		t.Run(name, func(t *testing.T) {
			defer src.Close()

			dst := gocv.NewMat()
			defer dst.Close()
			AdaptiveThreshold(11, 2)(src, &dst)

			for row := 0; row < dst.Rows(); row++ {
				for col := 0; col < dst.Cols(); col++ {
					v := dst.GetUCharAt(row, col)
					if v != 0 && v != 255 {
						t.Fatalf("pixel (%d,%d) = %d, want 0 or 255", row, col, v)
					}
				}
			}
		})
	}
}

func TestAdaptiveThreshold_IdempotentOnBinary(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	threshold := AdaptiveThreshold(11, 2)

	src := fixtures.VerticalLine(120, 160, 3)
	defer src.Close()

	once := gocv.NewMat()
	defer once.Close()
	threshold(src, &once)

	twice := gocv.NewMat()
	defer twice.Close()
	threshold(once, &twice)

	if !sameMat(t, src, once) {
		t.Error("thresholding a thin line on white should leave it unchanged")
	}
	if !sameMat(t, once, twice) {
		t.Error("thresholding binary output again should not change it")
	}
}

func TestFindContours_UniformBackground(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	binary := fixtures.UniformGray(120, 160, 0)
	defer binary.Close()

	contours := FindContours(binary)
	if len(contours) != 0 {
		t.Errorf("FindContours(background) = %d contours, want 0", len(contours))
	}
}

func TestFindContours_SingleRectangle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	rect := image.Rect(20, 20, 60, 50)
	binary := fixtures.FilledRect(120, 160, rect)
	defer binary.Close()

	contours := FindContours(binary)
	if len(contours) != 1 {
		t.Fatalf("FindContours(rectangle) = %d contours, want 1", len(contours))
	}

	// Filled rectangle spans Min..Max inclusive
	w, h := rect.Dx()+1, rect.Dy()+1
	perimeter := 2*(w+h) - 4

	n := len(contours[0])
	if n == 0 || n > perimeter {
		t.Errorf("contour has %d points, want 1..%d", n, perimeter)
	}

	for _, pt := range contours[0] {
		if !pt.In(image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X+1, rect.Max.Y+1)) {
			t.Errorf("contour point %v lies outside %v", pt, rect)
		}
	}
}

func TestDrawContours_NoContoursLeavesFrame(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	img := fixtures.UniformGray(40, 40, 128)
	defer img.Close()

	orig := img.Clone()
	defer orig.Close()

	DrawContours(&img, nil)

	if !sameMat(t, img, orig) {
		t.Error("drawing no contours should not change the frame")
	}
}

func TestNewSharpenKernel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	kernel := NewSharpenKernel()
	defer kernel.Close()

	want := [3][3]float32{
		{0, -1, 0},
		{-1, 5, -1},
		{0, -1, 0},
	}

	for row := range want {
		for col := range want[row] {
			if got := kernel.GetFloatAt(row, col); got != want[row][col] {
				t.Errorf("kernel[%d][%d] = %v, want %v", row, col, got, want[row][col])
			}
		}
	}
}

func TestPointCount(t *testing.T) {
	contours := []Contour{
		{{X: 0, Y: 0}, {X: 1, Y: 0}},
		{{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 6, Y: 6}},
		{},
	}

	if got := PointCount(contours); got != 5 {
		t.Errorf("PointCount() = %d, want 5", got)
	}
	if got := PointCount(nil); got != 0 {
		t.Errorf("PointCount(nil) = %d, want 0", got)
	}
}

func TestProcessor_Options(t *testing.T) {
	opts := testOptions()
	p := NewProcessor(opts)
	defer p.Close()

	if p.Options() != opts {
		t.Errorf("Options() = %+v, want %+v", p.Options(), opts)
	}
}
