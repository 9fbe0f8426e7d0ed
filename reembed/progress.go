package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressTracker writes a single self-overwriting progress line.
type ProgressTracker struct {
	mu           sync.Mutex
	w            io.Writer
	total        int
	every        int
	current      int
	lastReported int
	start        time.Time
	started      bool
	now          func() time.Time
}

// NewProgressTracker reports to w roughly every `every` documents out of total.
func NewProgressTracker(w io.Writer, total, every int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	if every <= 0 {
		every = 1
	}
	return &ProgressTracker{w: w, total: total, every: every, now: time.Now}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.start = p.now()
	p.started = true
	p.current = 0
	p.lastReported = 0
}

// Update sets the absolute number of documents done.
func (p *ProgressTracker) Update(done int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.current = min(done, p.total)
	if p.current-p.lastReported >= p.every {
		p.report()
		p.lastReported = p.current
	}
}

// Finish prints the final line and a newline.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return
	}
	p.current = p.total
	p.report()
	fmt.Fprintln(p.w)
}

// Elapsed returns the time since Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return 0
	}
	return p.now().Sub(p.start)
}

// Caller holds mu.
func (p *ProgressTracker) report() {
	var rate float64
	if secs := p.now().Sub(p.start).Seconds(); secs > 0 {
		rate = float64(p.current) / secs
	}
	var pct float64
	if p.total > 0 {
		pct = float64(p.current) / float64(p.total) * 100
	}
	fmt.Fprintf(p.w, "\rProgress: %s/%s (%.1f%%) - %.1f docs/s",
		humanize.Comma(int64(p.current)), humanize.Comma(int64(p.total)), pct, rate)
}
