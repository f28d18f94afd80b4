// Package app wires the camera, frame pipeline and outputs into a single
// sequential capture loop.
package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/laptopvision/internal/capture"
	"github.com/ayusman/laptopvision/internal/config"
	"github.com/ayusman/laptopvision/internal/memtrace"
	"github.com/ayusman/laptopvision/internal/sink"
	"github.com/ayusman/laptopvision/internal/store"
	"github.com/ayusman/laptopvision/internal/vision"
)

// ErrCaptureUnavailable is returned by Run when the capture source cannot be opened.
var ErrCaptureUnavailable = errors.New("capture source unavailable")

const (
	// keyMask keeps the low byte of a key code, ignoring modifier bits.
	keyMask = 0xFF
	// frameBatchSize is the number of frame stats buffered before they are journaled.
	frameBatchSize = 256
)

// StopReason records why the frame loop ended.
type StopReason string

const (
	// StopReadFailed covers both end of stream and a device error.
	StopReadFailed StopReason = "read_failed"
	// StopExitKey means the exit key was pressed.
	StopExitKey StopReason = "exit_key"
	// StopCaptureUnavailable means the loop never ran.
	StopCaptureUnavailable StopReason = "capture_unavailable"
)

// Config holds configuration options for the application.
type Config struct {
	Settings config.Config
	// Store is the optional run journal.
	Store *store.Store
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	StartedAt time.Time
	EndedAt   time.Time
	// Frames is the number of completed processing cycles.
	Frames int
	// Displayed is the number of display updates.
	Displayed int
	// Written is the number of frames appended to the output file.
	Written int
	Reason  StopReason
	// Contours are the contours of the last processed frame.
	Contours []vision.Contour
	Memory   memtrace.Stats
}

// App owns the capture source, the pipeline and the outputs for one run.
type App struct {
	config    Config
	camera    capture.Camera
	processor *vision.Processor
	display   sink.Display
	writer    sink.FrameWriter
	tracer    *memtrace.Tracer

	// frames buffers at most frameBatch stats between journal writes.
	frames     []store.FrameStat
	frameBatch int
}

// New creates a new App. The camera is created but not opened; the display
// window and video file are opened by Run unless replaced beforehand.
func New(config Config) *App {
	s := config.Settings

	return &App{
		config: config,
		camera: capture.NewCamera(s.DeviceID),
		processor: vision.NewProcessor(vision.Options{
			Size:      s.ProcessingSize.Point(),
			BlockSize: s.BlockSize,
			C:         s.ThresholdC,
		}),
		tracer:     memtrace.New(),
		frameBatch: frameBatchSize,
	}
}

// SetCamera replaces the capture source.
func (a *App) SetCamera(c capture.Camera) {
	a.camera = c
}

// SetDisplay replaces the display sink.
func (a *App) SetDisplay(d sink.Display) {
	a.display = d
}

// SetWriter replaces the file sink. When video saving is disabled Run closes
// it without writing.
func (a *App) SetWriter(w sink.FrameWriter) {
	a.writer = w
}

// Camera returns the capture source.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Processor returns the frame pipeline.
func (a *App) Processor() *vision.Processor {
	return a.processor
}

// Run executes one capture session and releases every resource before returning.
// An App runs once; create a new App for another session.
func (a *App) Run() (*Summary, error) {
	s := a.config.Settings
	summary := &Summary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	a.tracer.Start()
	a.beginJournal(summary)

	if err := a.camera.Open(); err != nil {
		log.Printf("Error opening video stream or file: %v", err)
		summary.Reason = StopCaptureUnavailable
		a.shutdown(summary)
		return summary, fmt.Errorf("%w: %v", ErrCaptureUnavailable, err)
	}

	if !s.SaveVideo {
		a.dropWriter()
	} else if a.writer == nil {
		a.writer = a.openWriter()
	}

	if a.display == nil {
		a.display = sink.NewWindow(s.WindowName)
	}

	log.Printf("Capturing from device %d at %s", s.DeviceID, s.ProcessingSize)
	a.runLoop(summary)
	a.shutdown(summary)

	return summary, nil
}

// openWriter opens the configured video file. Failure is logged and the run
// continues without file output.
func (a *App) openWriter() sink.FrameWriter {
	s := a.config.Settings

	w, err := sink.OpenVideoFile(sink.VideoFileOptions{
		Path:   s.OutputPath,
		Codec:  s.Codec,
		FPS:    s.OutputFPS,
		Width:  s.ProcessingSize.Width,
		Height: s.ProcessingSize.Height,
		Color:  false,
	})
	if err != nil {
		log.Printf("Video saving disabled: %v", err)
		return nil
	}

	log.Printf("Writing %s (%s, %.0f fps)", s.OutputPath, s.Codec, s.OutputFPS)
	return w
}

// dropWriter closes and forgets an injected writer.
func (a *App) dropWriter() {
	if a.writer == nil {
		return
	}
	if err := a.writer.Close(); err != nil {
		log.Printf("Error closing video file: %v", err)
	}
	a.writer = nil
}

// shutdown releases resources in order and reports diagnostics.
// It runs on every exit path.
func (a *App) shutdown(summary *Summary) {
	ran := summary.Reason != StopCaptureUnavailable

	summary.Memory = a.tracer.Snapshot()
	log.Printf("Memory: %s", summary.Memory)
	if ran {
		log.Printf("Final contours (%d): %v", len(summary.Contours), summary.Contours)
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	summary.Memory = a.tracer.Stop()

	if a.writer != nil {
		if err := a.writer.Close(); err != nil {
			log.Printf("Error closing video file: %v", err)
		}
	}

	if a.display != nil {
		if err := a.display.Close(); err != nil {
			log.Printf("Error closing display: %v", err)
		}
	}

	a.processor.Close()

	summary.EndedAt = time.Now()
	a.finishJournal(summary)

	if ran {
		log.Printf("Stopped after %d frames (%s)", summary.Frames, summary.Reason)
	}
}

// beginJournal records the start of a run. Journal errors never stop the run.
func (a *App) beginJournal(summary *Summary) {
	a.frames = a.frames[:0]
	if a.config.Store == nil {
		return
	}

	s := a.config.Settings
	run := &store.Run{
		ID:               summary.RunID,
		DeviceID:         s.DeviceID,
		ProcessingWidth:  s.ProcessingSize.Width,
		ProcessingHeight: s.ProcessingSize.Height,
		BlockSize:        s.BlockSize,
		StartedAt:        summary.StartedAt,
	}
	if s.SaveVideo {
		run.OutputPath = s.OutputPath
	}

	if err := a.config.Store.Runs().Create(run); err != nil {
		log.Printf("Failed to record run %s: %v", summary.RunID, err)
	}
}

// recordFrame buffers one frame's stats and journals the buffer once it is full.
// Nothing is kept when the journal is disabled.
func (a *App) recordFrame(runID string, stat store.FrameStat) {
	if a.config.Store == nil {
		return
	}

	a.frames = append(a.frames, stat)
	if len(a.frames) >= a.frameBatch {
		a.flushFrames(runID)
	}
}

// flushFrames writes the buffered frame stats. The buffer is reused either way.
func (a *App) flushFrames(runID string) {
	if err := a.config.Store.Frames().Append(runID, a.frames); err != nil {
		log.Printf("Failed to record frame stats for run %s: %v", runID, err)
	}
	a.frames = a.frames[:0]
}

// finishJournal stores the remaining frame statistics and the run outcome.
func (a *App) finishJournal(summary *Summary) {
	if a.config.Store == nil {
		return
	}

	a.flushFrames(summary.RunID)

	err := a.config.Store.Runs().Finish(summary.RunID, store.RunResult{
		Frames:        summary.Frames,
		FramesWritten: summary.Written,
		StopReason:    string(summary.Reason),
		FinalContours: len(summary.Contours),
		MemCurrent:    summary.Memory.Current,
		MemPeak:       summary.Memory.Peak,
		EndedAt:       summary.EndedAt,
	})
	if err != nil {
		log.Printf("Failed to finish run %s: %v", summary.RunID, err)
	}
}
