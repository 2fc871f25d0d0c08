// Package pipeline runs the two extraction pipelines: daily climate
// series and water-quality index composites, both reduced per lake over
// gridded rasters into long tables.
package pipeline

import (
	"fmt"
	"time"

	"github.com/hab-forecasting/lakezonal/pkg/raster"
	"github.com/hab-forecasting/lakezonal/pkg/sysmem"
)

// OpenFunc decodes one raster file, returning the dataset and the name
// of the engine that decoded it.
type OpenFunc func(path string) (raster.Dataset, string, error)

// defaultOpen runs the signature check and the full engine chain.
func defaultOpen(path string) (raster.Dataset, string, error) {
	return raster.Open(path, raster.DefaultEngines())
}

// maxChunkSteps caps how many time steps a single read pulls in; a
// month of daily steps keeps read overhead low without ballooning the
// working set.
const maxChunkSteps = 30

// chunkSteps sizes the time chunk for a grid of the given cell count so
// one decoded chunk stays within a fraction of physical memory. A chunk
// holds float64 cells plus the engine's transient decode copy, hence
// the conservative divisor.
func chunkSteps(cells int) int {
	total, _ := sysmem.Total()
	budget := total / 8
	steps := int(budget / (uint64(cells) * 8))
	if steps < 1 {
		return 1
	}
	if steps > maxChunkSteps {
		return maxChunkSteps
	}
	return steps
}

// dateLabel renders the timestamps a file contributed, collapsing a
// multi-day climate file into a range.
func dateLabel(times []time.Time) string {
	if len(times) == 0 {
		return ""
	}
	const layout = "2006-01-02"
	if len(times) == 1 {
		return times[0].Format(layout)
	}
	min, max := times[0], times[0]
	for _, t := range times[1:] {
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return fmt.Sprintf("%s..%s (n=%d)", min.Format(layout), max.Format(layout), len(times))
}

// dateOnly strips the time of day, keeping the UTC calendar date.
func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
