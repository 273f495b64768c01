package main

import (
	"io"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"movieetl/internal/etl"
)

// reporter prints progress and the final summary to stdout. The flush
// callback and the poller may call it concurrently.
type reporter struct {
	mu sync.Mutex
	w  io.Writer
	p  *message.Printer
}

func newReporter(w io.Writer) *reporter {
	return &reporter{w: w, p: message.NewPrinter(language.English)}
}

func (r *reporter) progress(s etl.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p.Fprintf(r.w, "%d stored │ %d skipped │ %.1fs │ %.0f r/s\n",
		s.Stored, s.Skipped, s.Elapsed.Seconds(), s.Throughput)
}

func (r *reporter) finished(s etl.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p.Fprintf(r.w, "Finished: %d stored │ %d skipped │ %d malformed │ %d invalid │ %.1fs │ %.0f r/s\n",
		s.Stored, s.Skipped, s.ParseErrors, s.Invalid, s.Elapsed.Seconds(), s.Throughput)
	for _, reason := range s.Reasons() {
		r.p.Fprintf(r.w, "  skipped %s: %d\n", reason, s.SkipReasons[reason])
	}
}
