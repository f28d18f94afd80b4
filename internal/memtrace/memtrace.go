// Package memtrace tracks current and peak Go heap usage over a run.
package memtrace

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"
)

// Stats is a snapshot of traced heap usage since Start.
type Stats struct {
	// Current is the heap in use at the last sample, relative to Start.
	Current uint64
	// Peak is the highest Current seen while tracing.
	Peak uint64
}

func (s Stats) String() string {
	return fmt.Sprintf("current=%s peak=%s", humanize.Bytes(s.Current), humanize.Bytes(s.Peak))
}

// Tracer samples runtime heap statistics. Memory held by OpenCV Mats lives
// outside the Go heap and is not counted.
type Tracer struct {
	mu       sync.Mutex
	running  bool
	baseline uint64
	stats    Stats
	samples  int
}

// New creates a stopped Tracer.
func New() *Tracer {
	return &Tracer{}
}

// Start resets the tracer and records the baseline heap size.
func (t *Tracer) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.baseline = heapInUse()
	t.stats = Stats{}
	t.samples = 0
	t.running = true
}

// Sample records the current heap size. It is a no-op when stopped.
func (t *Tracer) Sample() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return
	}
	t.record(heapInUse())
}

// Snapshot samples and returns the stats without stopping.
func (t *Tracer) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		t.record(heapInUse())
	}
	return t.stats
}

// Stop takes a final sample and stops tracing.
func (t *Tracer) Stop() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		t.record(heapInUse())
		t.running = false
	}
	return t.stats
}

// Samples returns how many samples have been recorded since Start.
func (t *Tracer) Samples() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.samples
}

func (t *Tracer) record(inUse uint64) {
	var current uint64
	if inUse > t.baseline {
		current = inUse - t.baseline
	}

	t.stats.Current = current
	if current > t.stats.Peak {
		t.stats.Peak = current
	}
	t.samples++
}

func heapInUse() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}
