package raster

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// Product distinguishes monthly composites from daily observations; the
// two kinds differ in filename layout and in how coverage attributes are
// collapsed to a single timestamp.
type Product string

const (
	ProductDaily   Product = "daily"
	ProductMonthly Product = "monthly"
)

var (
	// ...YYYYMMDD_YYYYMMDD.L3m.MO... (composite start and end)
	monthlyNameRe = regexp.MustCompile(`\.(\d{8})_(\d{8})\.L3m\.MO\.`)
	// ...YYYYMMDD.L3m.DAY...
	dailyNameRe = regexp.MustCompile(`\.(\d{8})\.L3m\.DAY\.`)
)

const compactDate = "20060102"

// InferTimestamp recovers the observation timestamp of an opened raster
// file. Methods are tried in strict priority order, first success wins:
//
//  1. the dataset's time coordinate (first value),
//  2. time-coverage attributes (monthly: midpoint of start/end; daily: start),
//  3. dates embedded in the filename.
//
// Failure is fatal for the file, not the run: callers at the iteration
// boundary convert the error into a skip decision.
func InferTimestamp(path string, ds Dataset, product Product) (time.Time, error) {
	if ts, ok := ds.TimeValues(); ok && len(ts) > 0 {
		return ts[0].UTC(), nil
	}

	if t, ok := timeFromCoverage(ds, product); ok {
		return t, nil
	}

	if t, ok := timeFromName(filepath.Base(path), product); ok {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%s: %w", filepath.Base(path), ErrNoTimestamp)
}

func timeFromCoverage(ds Dataset, product Product) (time.Time, bool) {
	start, ok := firstAttr(ds, "time_coverage_start", "start_time")
	if !ok {
		return time.Time{}, false
	}
	end, ok := firstAttr(ds, "time_coverage_end", "end_time")
	if !ok {
		return time.Time{}, false
	}
	ts, err := parseEpoch(start)
	if err != nil {
		return time.Time{}, false
	}
	te, err := parseEpoch(end)
	if err != nil {
		return time.Time{}, false
	}
	if product == ProductMonthly {
		return midpoint(ts, te), true
	}
	return ts, true
}

func timeFromName(name string, product Product) (time.Time, bool) {
	if product == ProductMonthly {
		m := monthlyNameRe.FindStringSubmatch(name)
		if m == nil {
			return time.Time{}, false
		}
		ts, err1 := time.Parse(compactDate, m[1])
		te, err2 := time.Parse(compactDate, m[2])
		if err1 != nil || err2 != nil {
			return time.Time{}, false
		}
		return midpoint(ts.UTC(), te.UTC()), true
	}
	m := dailyNameRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(compactDate, m[1])
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func firstAttr(ds Dataset, names ...string) (string, bool) {
	for _, n := range names {
		if v, ok := ds.Attr(n); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func midpoint(a, b time.Time) time.Time {
	return a.Add(b.Sub(a) / 2).UTC()
}
