package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 40

// Bar is a single-line terminal progress bar.
type Bar struct {
	out       io.Writer
	label     string
	total     int
	current   int
	failed    int
	mu        sync.Mutex
	startTime time.Time
	lastPrint time.Time
	done      bool
}

// New creates a progress bar on stdout.
func New(total int, label string) *Bar {
	return NewWriter(os.Stdout, total, label)
}

// NewWriter creates a progress bar that renders to out.
func NewWriter(out io.Writer, total int, label string) *Bar {
	now := time.Now()
	return &Bar{
		out:       out,
		label:     label,
		total:     total,
		startTime: now,
		lastPrint: now,
	}
}

// Increment records one finished item. Failed items count toward the
// total and are shown separately.
func (b *Bar) Increment(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current++
	if !ok {
		b.failed++
	}

	// Update display every 500ms or when complete
	now := time.Now()
	if now.Sub(b.lastPrint) > 500*time.Millisecond || b.current >= b.total {
		b.render()
		b.lastPrint = now
	}
}

// Finish marks the progress as complete
func (b *Bar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.done {
		b.current = b.total
		b.render()
		fmt.Fprintln(b.out)
		b.done = true
	}
}

func (b *Bar) render() {
	if b.done || b.total <= 0 {
		return
	}

	current := min(b.current, b.total)
	percentage := float64(current) / float64(b.total) * 100
	elapsed := time.Since(b.startTime)

	var eta time.Duration
	if current > 0 {
		eta = elapsed / time.Duration(current) * time.Duration(b.total-current)
	}

	filled := barWidth * current / b.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	failed := ""
	if b.failed > 0 {
		failed = fmt.Sprintf(" - %d failed", b.failed)
	}

	fmt.Fprintf(b.out, "\r%s [%s] %d/%d (%.1f%%)%s - Elapsed: %s - ETA: %s   ",
		b.label,
		bar,
		current,
		b.total,
		percentage,
		failed,
		formatDuration(elapsed),
		formatDuration(eta),
	)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
