package pipeline

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/geom"

	"github.com/hab-forecasting/lakezonal/pkg/lakes"
	"github.com/hab-forecasting/lakezonal/pkg/logging"
	"github.com/hab-forecasting/lakezonal/pkg/raster"
)

// fakeDataset serves canned variables and attributes so pipeline logic
// can be exercised without raster fixtures on disk.
type fakeDataset struct {
	vars     map[string]*raster.Array
	attrs    map[string]string
	varAttrs map[string]map[string]float64
	times    []time.Time
	closed   bool
}

func (f *fakeDataset) HasVar(name string) bool {
	_, ok := f.vars[name]
	return ok
}

func (f *fakeDataset) ReadVar(name string) (*raster.Array, error) {
	a, ok := f.vars[name]
	if !ok {
		return nil, raster.ErrVarNotFound
	}
	return a, nil
}

func (f *fakeDataset) ReadSteps(name string, begin, end int) (*raster.Array, error) {
	a, ok := f.vars[name]
	if !ok {
		return nil, raster.ErrVarNotFound
	}
	elems := 1
	for _, d := range a.Shape[1:] {
		elems *= d
	}
	shape := append([]int{end - begin}, a.Shape[1:]...)
	return &raster.Array{Shape: shape, Data: a.Data[begin*elems : end*elems]}, nil
}

func (f *fakeDataset) StepCount(name string) (int, error) {
	a, ok := f.vars[name]
	if !ok {
		return 0, raster.ErrVarNotFound
	}
	return a.Shape[0], nil
}

func (f *fakeDataset) Attr(name string) (string, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

func (f *fakeDataset) VarAttrFloat(varName, attr string) (float64, bool) {
	m, ok := f.varAttrs[varName]
	if !ok {
		return 0, false
	}
	v, ok := m[attr]
	return v, ok
}

func (f *fakeDataset) TimeValues() ([]time.Time, bool) {
	return f.times, len(f.times) > 0
}

func (f *fakeDataset) Close() error {
	f.closed = true
	return nil
}

// axis3 is a 3x3 grid with lat=lon=0,1,2 along 1D coordinate axes.
func axis3() map[string]*raster.Array {
	return map[string]*raster.Array{
		"lat": {Shape: []int{3}, Data: []float64{0, 1, 2}},
		"lon": {Shape: []int{3}, Data: []float64{0, 1, 2}},
	}
}

// centerSquare covers only the grid cell at (1, 1).
func centerSquare() geom.Polygon {
	return geom.Polygon{{
		{X: 0.5, Y: 0.5}, {X: 1.5, Y: 0.5},
		{X: 1.5, Y: 1.5}, {X: 0.5, Y: 1.5}, {X: 0.5, Y: 0.5},
	}}
}

func oneLake(id, name string) *lakes.Table {
	return &lakes.Table{Lakes: []lakes.Lake{{ID: id, Name: name, Geom: centerSquare()}}}
}

func openFake(ds *fakeDataset, engine string) OpenFunc {
	return func(string) (raster.Dataset, string, error) {
		return ds, engine, nil
	}
}

func TestIndexFileReducesCenterCell(t *testing.T) {
	nan := math.NaN()
	ds := &fakeDataset{
		vars: axis3(),
		times: []time.Time{
			time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		},
	}
	ds.vars["CI_cyano"] = &raster.Array{
		Shape: []int{3, 3},
		Data: []float64{
			nan, nan, nan,
			nan, 0.02, nan,
			nan, nan, nan,
		},
	}

	rows, engine, err := indexFile("S3M_OLCI_EFRNT.20240601.L3m.DAY.CYAN.nc",
		raster.ProductDaily, oneLake("erie", "Lake Erie"), openFake(ds, "netcdf"))
	if err != nil {
		t.Fatalf("indexFile failed: %v", err)
	}
	if engine != "netcdf" {
		t.Errorf("engine = %q, want netcdf", engine)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	r := rows[0]
	if r.LakeID != "erie" || r.Product != "daily" {
		t.Errorf("row identity = (%q, %q)", r.LakeID, r.Product)
	}
	// The inferred timestamp is carried whole; only the CSV writer
	// narrows it to a date.
	if !r.Date.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, want 2024-06-01T12:00:00Z", r.Date)
	}
	if r.NValid != 1 || r.CIMean != 0.02 || r.CIP90 != 0.02 {
		t.Errorf("stats = (%d, %v, %v), want (1, 0.02, 0.02)", r.NValid, r.CIMean, r.CIP90)
	}
	if !ds.closed {
		t.Error("dataset not closed")
	}
}

func TestIndexFileAllInvalidKeepsRow(t *testing.T) {
	ds := &fakeDataset{
		vars:  axis3(),
		times: []time.Time{time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)},
	}
	// Every cell sits at or below the noise floor.
	data := make([]float64, 9)
	for i := range data {
		data[i] = 1e-6
	}
	ds.vars["CI_cyano"] = &raster.Array{Shape: []int{3, 3}, Data: data}

	rows, _, err := indexFile("f.nc", raster.ProductDaily, oneLake("erie", ""), openFake(ds, "netcdf"))
	if err != nil {
		t.Fatalf("indexFile failed: %v", err)
	}
	r := rows[0]
	if r.NValid != 0 {
		t.Errorf("NValid = %d, want 0", r.NValid)
	}
	if !math.IsNaN(r.CIMean) || !math.IsNaN(r.CIP90) {
		t.Errorf("stats = (%v, %v), want NaN", r.CIMean, r.CIP90)
	}
}

func TestIndexFileRespectsValidMin(t *testing.T) {
	ds := &fakeDataset{
		vars:  axis3(),
		times: []time.Time{time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)},
		varAttrs: map[string]map[string]float64{
			"CI_cyano": {"valid_min": 0.01, "valid_max": 1.0},
		},
	}
	// Center value is above the noise floor but below valid_min.
	data := make([]float64, 9)
	for i := range data {
		data[i] = math.NaN()
	}
	data[4] = 0.005
	ds.vars["CI_cyano"] = &raster.Array{Shape: []int{3, 3}, Data: data}

	rows, _, err := indexFile("f.nc", raster.ProductDaily, oneLake("erie", ""), openFake(ds, "netcdf"))
	if err != nil {
		t.Fatalf("indexFile failed: %v", err)
	}
	if rows[0].NValid != 0 {
		t.Errorf("NValid = %d, want 0 (valid_min filter)", rows[0].NValid)
	}
}

func TestIndexFileSkipReasons(t *testing.T) {
	tests := []struct {
		name string
		open OpenFunc
		want error
	}{
		{
			name: "decode failure",
			open: func(string) (raster.Dataset, string, error) {
				return nil, "", raster.ErrBadSignature
			},
			want: raster.ErrBadSignature,
		},
		{
			name: "missing variable",
			open: openFake(&fakeDataset{
				vars:  axis3(),
				times: []time.Time{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
			}, "netcdf"),
			want: raster.ErrVarNotFound,
		},
		{
			name: "no timestamp",
			open: openFake(&fakeDataset{vars: axis3()}, "netcdf"),
			want: raster.ErrNoTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := indexFile("mystery.nc", raster.ProductDaily,
				oneLake("erie", ""), tt.open)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestIndexFileRejectsMisalignedVariable(t *testing.T) {
	tests := []struct {
		name  string
		shape []int
	}{
		{name: "two time steps", shape: []int{2, 3, 3}},
		{name: "wrong plane", shape: []int{3, 4}},
		{name: "flat vector", shape: []int{9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := 1
			for _, d := range tt.shape {
				n *= d
			}
			ds := &fakeDataset{
				vars:  axis3(),
				times: []time.Time{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
			}
			ds.vars["CI_cyano"] = &raster.Array{Shape: tt.shape, Data: make([]float64, n)}

			rows, _, err := indexFile("f.nc", raster.ProductDaily,
				oneLake("erie", ""), openFake(ds, "netcdf"))
			if err == nil {
				t.Fatalf("shape %v reduced to %d rows, want skip error", tt.shape, len(rows))
			}
			if !strings.Contains(err.Error(), "shape") {
				t.Errorf("err = %v, want shape mismatch", err)
			}
		})
	}
}

func TestIndexFileAcceptsSingletonTimeDimension(t *testing.T) {
	nan := math.NaN()
	ds := &fakeDataset{
		vars:  axis3(),
		times: []time.Time{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	ds.vars["CI_cyano"] = &raster.Array{
		Shape: []int{1, 3, 3},
		Data: []float64{
			nan, nan, nan,
			nan, 0.03, nan,
			nan, nan, nan,
		},
	}

	rows, _, err := indexFile("f.nc", raster.ProductDaily, oneLake("erie", ""), openFake(ds, "netcdf"))
	if err != nil {
		t.Fatalf("indexFile failed: %v", err)
	}
	if rows[0].NValid != 1 || rows[0].CIMean != 0.03 {
		t.Errorf("stats = (%d, %v), want (1, 0.03)", rows[0].NValid, rows[0].CIMean)
	}
}

func TestReduceFilesContinuesPastGarbage(t *testing.T) {
	nan := math.NaN()
	good := &fakeDataset{
		vars:  axis3(),
		times: []time.Time{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	good.vars["CI_cyano"] = &raster.Array{
		Shape: []int{3, 3},
		Data: []float64{
			nan, nan, nan,
			nan, 0.04, nan,
			nan, nan, nan,
		},
	}
	open := func(path string) (raster.Dataset, string, error) {
		if path == "garbage.nc" {
			return nil, "", raster.ErrBadSignature
		}
		return good, "netcdf", nil
	}

	files := []string{"garbage.nc", "good.nc"}
	tracker := logging.NewFileTracker("index", int64(len(files)), logging.WithPhase("index"))
	out := reduceFiles(files, raster.ProductDaily, oneLake("erie", ""), open, tracker)

	rows := out.Rows()
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Src != "good.nc" {
		t.Errorf("row src = %q, want good.nc", rows[0].Src)
	}
	completed, skipped, total := tracker.Progress()
	if completed != 1 || skipped != 1 || total != 2 {
		t.Errorf("progress = (%d, %d, %d), want (1, 1, 2)", completed, skipped, total)
	}
}

func TestDateLabel(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	if got := dateLabel(nil); got != "" {
		t.Errorf("empty label = %q", got)
	}
	if got := dateLabel([]time.Time{d1}); got != "2024-01-01" {
		t.Errorf("single label = %q", got)
	}
	got := dateLabel([]time.Time{d2, d1, d3})
	if got != "2024-01-01..2024-01-03 (n=3)" {
		t.Errorf("range label = %q", got)
	}
}

func TestChunkStepsBounds(t *testing.T) {
	// Tiny grid: the read never needs to shrink below the cap.
	if got := chunkSteps(9); got != maxChunkSteps {
		t.Errorf("chunkSteps(9) = %d, want %d", got, maxChunkSteps)
	}
	// A grid too large for any budget still reads one step at a time.
	if got := chunkSteps(1 << 60); got != 1 {
		t.Errorf("chunkSteps(huge) = %d, want 1", got)
	}
}
