package app

import (
	"log"

	"github.com/ayusman/laptopvision/internal/store"
	"github.com/ayusman/laptopvision/internal/vision"
)

// runLoop is the frame loop. It runs on the calling goroutine until a read
// fails or the exit key is pressed.
//
// Each cycle:
// 1. Read a frame (blocks until the camera delivers one)
// 2. Run the frame pipeline
// 3. Show the resized frame
// 4. Append the contour-drawn frame to the output file, if enabled
// 5. Wait briefly for the exit key
func (a *App) runLoop(summary *Summary) {
	s := a.config.Settings
	exitKey := s.ExitKeyCode()

	for {
		frame, err := a.camera.ReadFrame()
		if err != nil {
			summary.Reason = StopReadFailed
			return
		}

		result, err := a.processor.Process(*frame)
		frame.Close()
		if err != nil {
			log.Printf("Error processing frame %d: %v", summary.Frames, err)
			summary.Reason = StopReadFailed
			return
		}

		a.display.Show(result.Resized)
		summary.Displayed++

		if a.writer != nil {
			if err := a.writer.Write(result.Drawn); err != nil {
				log.Printf("Error writing frame %d: %v", summary.Frames, err)
			} else {
				summary.Written++
			}
		}

		summary.Contours = result.Contours
		a.recordFrame(summary.RunID, store.FrameStat{
			Index:    summary.Frames,
			Contours: len(result.Contours),
			Points:   vision.PointCount(result.Contours),
		})
		summary.Frames++
		result.Close()

		a.tracer.Sample()

		if a.display.WaitKey(s.KeyWaitMs)&keyMask == exitKey {
			summary.Reason = StopExitKey
			return
		}
	}
}
