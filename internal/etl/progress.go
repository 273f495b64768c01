package etl

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Progress holds the live counters of one run. Every method is safe to call
// from any goroutine, so a caller can poll Snapshot while the run is going.
type Progress struct {
	start time.Time
	now   func() time.Time

	read        atomic.Int64 // objects decoded from the input
	stored      atomic.Int64 // main rows committed
	skipped     atomic.Int64 // objects excluded by the filter
	parseErrors atomic.Int64 // lines that were not JSON objects
	invalid     atomic.Int64 // objects that could not be split (id, shape)
	flushes     atomic.Int64 // committed batches

	mu      sync.Mutex
	reasons map[string]int64
}

// NewProgress starts the clock.
func NewProgress() *Progress {
	return newProgress(time.Now)
}

func newProgress(now func() time.Time) *Progress {
	return &Progress{start: now(), now: now, reasons: make(map[string]int64)}
}

func (p *Progress) skip(reason string) {
	p.skipped.Add(1)
	p.mu.Lock()
	p.reasons[reason]++
	p.mu.Unlock()
}

// Summary is a point-in-time copy of the counters.
type Summary struct {
	Read        int64
	Stored      int64
	Skipped     int64
	ParseErrors int64
	Invalid     int64
	Flushes     int64
	Elapsed     time.Duration

	// Throughput is stored rows per second of elapsed time.
	Throughput float64

	// SkipReasons counts skipped movies per exclusion name.
	SkipReasons map[string]int64
}

// Snapshot returns the current counters.
func (p *Progress) Snapshot() Summary {
	s := Summary{
		Read:        p.read.Load(),
		Stored:      p.stored.Load(),
		Skipped:     p.skipped.Load(),
		ParseErrors: p.parseErrors.Load(),
		Invalid:     p.invalid.Load(),
		Flushes:     p.flushes.Load(),
		Elapsed:     p.now().Sub(p.start),
	}
	if secs := s.Elapsed.Seconds(); secs > 0 {
		s.Throughput = float64(s.Stored) / secs
	}

	p.mu.Lock()
	s.SkipReasons = make(map[string]int64, len(p.reasons))
	for k, v := range p.reasons {
		s.SkipReasons[k] = v
	}
	p.mu.Unlock()
	return s
}

// Reasons returns the skip reasons in name order.
func (s Summary) Reasons() []string {
	out := make([]string, 0, len(s.SkipReasons))
	for k := range s.SkipReasons {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Unaccounted is the number of decoded objects that did not end up stored
// or rejected. It is zero after a successful run and counts the discarded
// remainder after a failed or cancelled one.
func (s Summary) Unaccounted() int64 {
	return s.Read - s.Stored - s.Skipped - s.Invalid
}
