// Package table assembles per-file and per-variable extraction results
// into the final long-format tables and persists them.
package table

import (
	"math"
	"sort"
	"time"
)

// ClimateVariables is the fixed column set of the climate table, in
// output order. Requested variables are a subset; absent columns are
// still emitted and filled with nulls.
var ClimateVariables = []string{"tmin", "tmax", "prcp", "srad", "vp", "dayl"}

// ClimateRow is one lake-day with one value per climate variable.
// A NaN (or missing) value is a null in the output, not a dropped row.
type ClimateRow struct {
	LakeID   string
	LakeName string
	Date     time.Time
	Values   map[string]float64
}

// ClimateTable merges per-variable series with outer-join semantics on
// (lake_id, lake_name, date): a variable missing for a lake-day never
// drops the row.
type ClimateTable struct {
	rows map[climateKey]*ClimateRow
}

type climateKey struct {
	lakeID string
	date   time.Time
}

// NewClimateTable returns an empty climate table.
func NewClimateTable() *ClimateTable {
	return &ClimateTable{rows: make(map[climateKey]*ClimateRow)}
}

// Add records one variable value for a lake-day, creating the row if it
// does not exist yet. NaN values still create the row (the day existed in
// the source; its statistic is null).
func (t *ClimateTable) Add(lakeID, lakeName string, date time.Time, variable string, value float64) {
	k := climateKey{lakeID: lakeID, date: date}
	r, ok := t.rows[k]
	if !ok {
		r = &ClimateRow{
			LakeID:   lakeID,
			LakeName: lakeName,
			Date:     date,
			Values:   make(map[string]float64),
		}
		t.rows[k] = r
	}
	if !math.IsNaN(value) {
		r.Values[variable] = value
	}
}

// Len returns the number of assembled rows.
func (t *ClimateTable) Len() int { return len(t.rows) }

// Rows returns all rows sorted by (lake_id, date).
func (t *ClimateTable) Rows() []ClimateRow {
	out := make([]ClimateRow, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LakeID != out[j].LakeID {
			return out[i].LakeID < out[j].LakeID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// IndexRow is one lake-file result of the water-quality index pipeline.
// NaN statistics are nulls in the output; NValid stays meaningful.
type IndexRow struct {
	LakeID  string
	Date    time.Time
	Product string
	CIMean  float64
	CIP90   float64
	NValid  int
	Src     string
	Engine  string
}

// IndexTable stacks per-file row sets; files contribute disjoint
// timestamps so no join is needed.
type IndexTable struct {
	rows []IndexRow
}

// NewIndexTable returns an empty index table.
func NewIndexTable() *IndexTable { return &IndexTable{} }

// Append stacks a batch of rows.
func (t *IndexTable) Append(rows ...IndexRow) {
	t.rows = append(t.rows, rows...)
}

// Len returns the number of stacked rows.
func (t *IndexTable) Len() int { return len(t.rows) }

// Rows returns all rows sorted by (lake_id, date).
func (t *IndexTable) Rows() []IndexRow {
	out := make([]IndexRow, len(t.rows))
	copy(out, t.rows)
	sort.Slice(out, func(i, j int) bool {
		if out[i].LakeID != out[j].LakeID {
			return out[i].LakeID < out[j].LakeID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
