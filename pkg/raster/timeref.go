package raster

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// CF time coordinates are numeric offsets from an epoch declared in the
// units attribute, e.g. "days since 1980-01-01 00:00:00".
var sinceRe = regexp.MustCompile(`^\s*([A-Za-z]+)\s+since\s+(.+?)\s*$`)

var epochLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-1-2 15:04:05",
	"2006-1-2",
}

func parseEpoch(s string) (time.Time, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), " UTC")
	for _, layout := range epochLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time epoch %q", s)
}

func unitSeconds(unit string) (float64, error) {
	switch strings.ToLower(unit) {
	case "seconds", "second", "secs", "sec", "s":
		return 1, nil
	case "minutes", "minute", "mins", "min":
		return 60, nil
	case "hours", "hour", "hrs", "hr", "h":
		return 3600, nil
	case "days", "day", "d":
		return 86400, nil
	}
	return 0, fmt.Errorf("unsupported time unit %q", unit)
}

// decodeCFTimes converts raw time-coordinate values into UTC instants
// using their units attribute.
func decodeCFTimes(vals []float64, units string) ([]time.Time, error) {
	m := sinceRe.FindStringSubmatch(units)
	if m == nil {
		return nil, fmt.Errorf("time units %q are not of the form <unit> since <epoch>", units)
	}
	secs, err := unitSeconds(m[1])
	if err != nil {
		return nil, err
	}
	epoch, err := parseEpoch(m[2])
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(vals))
	for i, v := range vals {
		out[i] = epoch.Add(time.Duration(v * secs * float64(time.Second))).UTC()
	}
	return out, nil
}
