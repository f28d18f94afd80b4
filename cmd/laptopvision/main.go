package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ayusman/laptopvision/internal/app"
	"github.com/ayusman/laptopvision/internal/config"
	"github.com/ayusman/laptopvision/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to a JSON config file")
	device := flag.Int("device", -1, "camera device index (overrides config)")
	save := flag.Bool("save", false, "write contour-drawn frames to the output file")
	output := flag.String("output", "", "output video path (overrides config)")
	width := flag.Int("width", 0, "processing width (overrides config)")
	height := flag.Int("height", 0, "processing height (overrides config)")
	block := flag.Int("block", 0, "adaptive threshold block size (overrides config)")
	journal := flag.String("journal", "", "SQLite run journal path (overrides config)")
	history := flag.Int("history", 0, "print the last N journaled runs and exit")
	flag.Parse()

	fmt.Println("LaptopVision - contour preview")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	applyFlags(&cfg, *device, *save, *output, *width, *height, *block, *journal)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var st *store.Store
	if cfg.JournalPath != "" {
		st, err = store.New(cfg.JournalPath)
		if err != nil {
			log.Fatalf("Failed to open run journal: %v", err)
		}
		defer st.Close()
	}

	if *history > 0 {
		if st == nil {
			log.Fatal("-history requires a journal (-journal or journal_path)")
		}
		if err := printHistory(st, *history); err != nil {
			log.Fatalf("Failed to read run journal: %v", err)
		}
		return
	}

	a := app.New(app.Config{
		Settings: cfg,
		Store:    st,
	})

	summary, err := a.Run()
	if err != nil {
		// The diagnostic has already been reported; there is nothing to retry.
		log.Printf("Run %s ended: %v", summary.RunID, err)
		return
	}

	fmt.Printf("Processed %d frames in %s (%s)\n",
		summary.Frames, summary.EndedAt.Sub(summary.StartedAt).Round(time.Millisecond), summary.Reason)
}

// applyFlags overrides config values with flags that were explicitly set.
func applyFlags(cfg *config.Config, device int, save bool, output string, width, height, block int, journal string) {
	if device >= 0 {
		cfg.DeviceID = device
	}
	if save {
		cfg.SaveVideo = true
	}
	if output != "" {
		cfg.OutputPath = output
	}
	if width > 0 {
		cfg.ProcessingSize.Width = width
	}
	if height > 0 {
		cfg.ProcessingSize.Height = height
	}
	if block > 0 {
		cfg.BlockSize = block
	}
	if journal != "" {
		cfg.JournalPath = journal
	}
}

// printHistory writes the most recent runs as a table.
func printHistory(st *store.Store, limit int) error {
	runs, err := st.Runs().List(limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tFRAMES\tWRITTEN\tSTOP\tCONTOURS\tPEAK MEM")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%d\t%s\n",
			r.ID[:min(8, len(r.ID))],
			humanize.Time(r.StartedAt),
			r.Frames,
			r.FramesWritten,
			r.StopReason,
			r.FinalContours,
			humanize.Bytes(r.MemPeak),
		)
	}
	return w.Flush()
}
