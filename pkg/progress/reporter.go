// Package progress provides sinks that render download progress.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/orca-models/orca/pkg/download"
	"github.com/orca-models/orca/pkg/logging"
)

var (
	_ download.Reporter = &LogReporter{}
	_ download.Reporter = &BarReporter{}
	_ download.Reporter = Nop{}
)

// Nop discards all progress.
type Nop struct{}

func (Nop) Progress(int64, int64) {}
func (Nop) Finish(bool, error)    {}

// LogReporter emits a structured log line at most once per Interval.
type LogReporter struct {
	Logger   zerolog.Logger
	Interval time.Duration

	mu       sync.Mutex
	start    time.Time
	lastLog  time.Time
	now      func() time.Time
	lastSeen int64
	total    int64
}

func NewLogReporter(interval time.Duration) *LogReporter {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &LogReporter{Logger: logging.Component("progress"), Interval: interval}
}

func (r *LogReporter) Progress(completed, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock()
	if r.start.IsZero() {
		r.start = now
	}
	r.lastSeen, r.total = completed, total
	if !r.lastLog.IsZero() && now.Sub(r.lastLog) < r.Interval {
		return
	}
	r.lastLog = now
	r.Logger.Info().
		Str("completed", humanize.IBytes(uint64(completed))).
		Str("total", humanize.IBytes(uint64(total))).
		Str("percent", fmt.Sprintf("%.1f%%", percent(completed, total))).
		Str("throughput", throughput(completed, now.Sub(r.start))).
		Msg("Progress")
}

func (r *LogReporter) Finish(success bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !success {
		r.Logger.Error().Err(err).Msg("Download failed")
		return
	}
	elapsed := time.Duration(0)
	if !r.start.IsZero() {
		elapsed = r.clock().Sub(r.start)
	}
	r.Logger.Info().
		Str("size", humanize.IBytes(uint64(r.total))).
		Str("throughput", throughput(r.lastSeen, elapsed)).
		Msg("Download complete")
}

func (r *LogReporter) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}

// BarReporter redraws a single-line progress bar on Out.
type BarReporter struct {
	Out   io.Writer
	Width int

	mu   sync.Mutex
	last string
}

func NewBarReporter() *BarReporter {
	return &BarReporter{Out: os.Stderr, Width: 40}
}

func (b *BarReporter) Progress(completed, total int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	line := renderBar(completed, total, b.Width)
	if line == b.last {
		return
	}
	b.last = line
	_, _ = fmt.Fprintf(b.Out, "\r%s", line)
}

func (b *BarReporter) Finish(success bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last != "" {
		_, _ = fmt.Fprintln(b.Out)
	}
	if success {
		_, _ = fmt.Fprintln(b.Out, "Download complete")
		return
	}
	_, _ = fmt.Fprintf(b.Out, "Download failed: %v\n", err)
}

func renderBar(completed, total int64, width int) string {
	if width <= 0 {
		width = 40
	}
	pct := percent(completed, total)
	filled := int(pct / 100 * float64(width))
	filled = min(max(filled, 0), width)
	bar := strings.Repeat("=", filled)
	if filled < width {
		bar += ">" + strings.Repeat(" ", width-filled-1)
	}
	return fmt.Sprintf("[%s] %5.1f%% %s / %s", bar, pct,
		humanize.IBytes(uint64(completed)), humanize.IBytes(uint64(total)))
}

func percent(completed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

func throughput(bytes int64, elapsed time.Duration) string {
	if elapsed <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%s/s", humanize.IBytes(uint64(float64(bytes)/elapsed.Seconds())))
}
