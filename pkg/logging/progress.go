package logging

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// FileTracker tracks progress over a batch of raster files.
// Files either complete (rows extracted) or are skipped (signature,
// decode, or timestamp failure).
type FileTracker struct {
	total     int64
	completed atomic.Int64
	skipped   atomic.Int64
	rows      atomic.Int64
	startTime time.Time
	log       zerolog.Logger
	phase     string
}

// NewFileTracker creates a tracker for total files under the given phase.
func NewFileTracker(phase string, total int64, log zerolog.Logger) *FileTracker {
	return &FileTracker{
		total:     total,
		startTime: time.Now(),
		log:       log,
		phase:     phase,
	}
}

// FileStarted logs that processing of a file has begun.
func (ft *FileTracker) FileStarted(name string) {
	ft.log.Info().
		Str("event", "file_started").
		Str("phase", ft.phase).
		Str("file", name).
		Int64("done", ft.completed.Load()+ft.skipped.Load()).
		Int64("total", ft.total).
		Msg("file started")
}

// FileDone records a completed file and logs the per-file summary line:
// elapsed time, row count, distinct lake count and the decode engine used.
func (ft *FileTracker) FileDone(name, dateLabel string, rows, lakes int, engine string, elapsed time.Duration) {
	ft.completed.Add(1)
	ft.rows.Add(int64(rows))
	ft.log.Info().
		Str("event", "file_done").
		Str("phase", ft.phase).
		Str("file", name).
		Str("date", dateLabel).
		Int("rows", rows).
		Int("lakes", lakes).
		Str("engine", engine).
		Int64("duration_ms", elapsed.Milliseconds()).
		Msg("file done")
}

// FileSkipped records a skipped file with the reason chain.
func (ft *FileTracker) FileSkipped(name string, reason error) {
	ft.skipped.Add(1)
	ft.log.Warn().
		Str("event", "file_skipped").
		Str("phase", ft.phase).
		Str("file", name).
		Err(reason).
		Msg("file skipped")
}

// Progress returns the completed, skipped and total counts.
func (ft *FileTracker) Progress() (completed, skipped, total int64) {
	return ft.completed.Load(), ft.skipped.Load(), ft.total
}

// Rows returns the total number of result rows recorded so far.
func (ft *FileTracker) Rows() int64 {
	return ft.rows.Load()
}

// Elapsed returns time since tracking started.
func (ft *FileTracker) Elapsed() time.Duration {
	return time.Since(ft.startTime)
}

// ETA estimates remaining time from the overall completion rate.
func (ft *FileTracker) ETA() time.Duration {
	done := ft.completed.Load() + ft.skipped.Load()
	if done == 0 {
		return 0
	}
	remaining := ft.total - done
	if remaining <= 0 {
		return 0
	}
	perFile := time.Since(ft.startTime) / time.Duration(done)
	return perFile * time.Duration(remaining)
}

// Summary logs the run-level summary: files processed vs skipped and
// total rows produced.
func (ft *FileTracker) Summary() {
	completed, skipped, total := ft.Progress()
	e := ft.log.Info().
		Str("event", "run_summary").
		Str("phase", ft.phase).
		Int64("processed", completed).
		Int64("skipped", skipped).
		Int64("total", total).
		Int64("rows", ft.rows.Load()).
		Int64("duration_ms", ft.Elapsed().Milliseconds())
	if ft.rows.Load() == 0 {
		e.Msg("run produced zero valid rows")
		return
	}
	e.Msg("run complete")
}
