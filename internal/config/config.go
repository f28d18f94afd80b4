// Package config holds the startup configuration for the laptopvision pipeline.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
)

// Default settings used when no config file overrides them.
const (
	DefaultWidth      = 640
	DefaultHeight     = 480
	DefaultBlockSize  = 11
	DefaultThresholdC = 2
	DefaultOutputPath = "output.avi"
	DefaultCodec      = "MJPG"
	DefaultOutputFPS  = 15
	DefaultDeviceID   = 0
	DefaultWindowName = "Frame"
	DefaultExitKey    = "q"
	DefaultKeyWaitMs  = 25
)

// ErrInvalidConfig is returned by Validate when a setting is out of range.
var ErrInvalidConfig = errors.New("invalid config")

// Size is a frame size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Point returns the size as an image.Point (X = width, Y = height).
func (s Size) Point() image.Point {
	return image.Point{X: s.Width, Y: s.Height}
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Config is read once at startup and never mutated afterwards.
type Config struct {
	ProcessingSize Size    `json:"processing_size"`
	BlockSize      int     `json:"threshold_block_size"`
	ThresholdC     float32 `json:"threshold_c"`

	SaveVideo  bool    `json:"enable_video_saving"`
	OutputPath string  `json:"output_path"`
	Codec      string  `json:"codec"`
	OutputFPS  float64 `json:"output_fps"`

	DeviceID   int    `json:"device_id"`
	WindowName string `json:"window_name"`
	ExitKey    string `json:"exit_key"`
	KeyWaitMs  int    `json:"key_wait_ms"`

	// JournalPath is the SQLite run journal. Empty disables the journal.
	JournalPath string `json:"journal_path"`
}

// Default returns a Config populated with the default settings.
func Default() Config {
	return Config{
		ProcessingSize: Size{Width: DefaultWidth, Height: DefaultHeight},
		BlockSize:      DefaultBlockSize,
		ThresholdC:     DefaultThresholdC,
		SaveVideo:      false,
		OutputPath:     DefaultOutputPath,
		Codec:          DefaultCodec,
		OutputFPS:      DefaultOutputFPS,
		DeviceID:       DefaultDeviceID,
		WindowName:     DefaultWindowName,
		ExitKey:        DefaultExitKey,
		KeyWaitMs:      DefaultKeyWaitMs,
	}
}

// Load reads a JSON config file and decodes it over the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config %s: %w", path, err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks that every setting can be handed to OpenCV as-is.
func (c Config) Validate() error {
	if c.ProcessingSize.Width <= 0 || c.ProcessingSize.Height <= 0 {
		return fmt.Errorf("%w: processing size %s must be positive", ErrInvalidConfig, c.ProcessingSize)
	}

	// OpenCV rejects even or unit block sizes for adaptive thresholding.
	if c.BlockSize <= 1 || c.BlockSize%2 == 0 {
		return fmt.Errorf("%w: threshold block size %d must be odd and greater than 1", ErrInvalidConfig, c.BlockSize)
	}

	if len(c.ExitKey) != 1 {
		return fmt.Errorf("%w: exit key %q must be a single character", ErrInvalidConfig, c.ExitKey)
	}

	if c.KeyWaitMs <= 0 {
		return fmt.Errorf("%w: key wait %dms must be positive", ErrInvalidConfig, c.KeyWaitMs)
	}

	if c.SaveVideo {
		if c.OutputPath == "" {
			return fmt.Errorf("%w: output path is required when video saving is enabled", ErrInvalidConfig)
		}
		if len(c.Codec) != 4 {
			return fmt.Errorf("%w: codec %q must be a 4-character tag", ErrInvalidConfig, c.Codec)
		}
		if c.OutputFPS <= 0 {
			return fmt.Errorf("%w: output fps %v must be positive", ErrInvalidConfig, c.OutputFPS)
		}
	}

	return nil
}

// ExitKeyCode returns the key code that stops the frame loop.
func (c Config) ExitKeyCode() int {
	if c.ExitKey == "" {
		return int(DefaultExitKey[0])
	}
	return int(c.ExitKey[0])
}
