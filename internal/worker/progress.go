package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress renders a single-line progress bar for a batch run and keeps the
// counts needed for the final summary.
type Progress struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	started time.Time

	total, completed, failed int
}

// NewProgress creates a tracker for total tasks. Nothing is written unless
// enabled is set; output goes to stderr.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		out:     os.Stderr,
		enabled: enabled,
		started: time.Now(),
		total:   total,
	}
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

// Update records the pool counters and redraws the bar.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed, p.total, p.failed = completed, total, failed
	if p.enabled {
		fmt.Fprint(p.out, "\r"+p.line())
	}
}

// Done redraws the bar one last time and terminates the line.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.enabled {
		fmt.Fprintln(p.out, "\r"+p.line())
	}
}

// Summary describes the finished run.
func (p *Progress) Summary() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return fmt.Sprintf("Resolved %d/%d viewports (%d failed) in %s",
		p.completed-p.failed, p.total, p.failed, time.Since(p.started).Round(time.Millisecond))
}

// line renders the bar. Callers hold p.mu.
func (p *Progress) line() string {
	filled := 0
	if p.total > 0 {
		filled = min(p.completed, p.total) * barWidth / p.total
	}

	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(strings.Repeat("#", filled))
	b.WriteString(strings.Repeat("-", barWidth-filled))
	fmt.Fprintf(&b, "] %d/%d viewports", p.completed, p.total)
	if p.failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", p.failed)
	}
	if secs := time.Since(p.started).Seconds(); secs > 0 && p.completed > 0 {
		fmt.Fprintf(&b, " %.0f/s", float64(p.completed)/secs)
	}
	return b.String()
}
