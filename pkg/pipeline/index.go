package pipeline

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/hab-forecasting/lakezonal/pkg/lakes"
	"github.com/hab-forecasting/lakezonal/pkg/logging"
	"github.com/hab-forecasting/lakezonal/pkg/raster"
	"github.com/hab-forecasting/lakezonal/pkg/table"
	"github.com/hab-forecasting/lakezonal/pkg/zonal"
)

// ciVariable is the cyanobacteria index variable of the OLCI L3m
// composites.
const ciVariable = "CI_cyano"

// indexGlob returns the filename glob for one composite kind.
func indexGlob(product raster.Product) string {
	if product == raster.ProductMonthly {
		return "S3M_OLCI_EFRNT.*.L3m.MO.*.nc"
	}
	return "S3M_OLCI_EFRNT.*.L3m.DAY.*.nc"
}

// IndexConfig configures one water-quality index extraction run.
type IndexConfig struct {
	// Dir holds the composite raster files.
	Dir string
	// LakesPath is the lake polygon shapefile.
	LakesPath string
	// Product selects daily or monthly composites.
	Product raster.Product
	// Out is the output table path (.csv or parquet).
	Out string
	// Open decodes one raster; nil uses the default engine chain.
	Open OpenFunc
}

// RunIndex reduces every composite file in the input directory to one
// row per lake and writes the stacked table. A file that cannot be
// decoded, dated, or that lacks the index variable is skipped with its
// reason logged; the run continues. Composite archives routinely mix
// malformed downloads in with good granules, so per-file failures are
// data quality events, not run failures.
func RunIndex(cfg IndexConfig) error {
	log := logging.WithPhase("index")
	open := cfg.Open
	if open == nil {
		open = defaultOpen
	}
	product := cfg.Product
	if product == "" {
		product = raster.ProductDaily
	}

	lt, err := lakes.Load(cfg.LakesPath)
	if err != nil {
		return fmt.Errorf("load lakes: %w", err)
	}
	log.Info().Int("lakes", lt.Len()).Str("path", cfg.LakesPath).Msg("lake table loaded")

	files, err := filepath.Glob(filepath.Join(cfg.Dir, indexGlob(product)))
	if err != nil {
		return fmt.Errorf("glob %s: %w", cfg.Dir, err)
	}
	sort.Strings(files)
	if len(files) == 0 {
		log.Warn().Str("dir", cfg.Dir).Str("glob", indexGlob(product)).
			Msg("no input files found")
	}

	tracker := logging.NewFileTracker("index", int64(len(files)), log)
	out := reduceFiles(files, product, lt, open, tracker)
	tracker.Summary()

	rows := out.Rows()
	if err := table.WriteIndex(cfg.Out, rows); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Out, err)
	}
	log.Info().Int("rows", len(rows)).Str("out", cfg.Out).Msg("index table written")
	return nil
}

// reduceFiles runs the per-file loop. A failed file becomes a skip with
// its reason logged; it never stops the remaining files.
func reduceFiles(files []string, product raster.Product, lt *lakes.Table,
	open OpenFunc, tracker *logging.FileTracker) *table.IndexTable {

	out := table.NewIndexTable()
	for _, path := range files {
		name := filepath.Base(path)
		tracker.FileStarted(name)
		start := time.Now()
		rows, engine, err := indexFile(path, product, lt, open)
		if err != nil {
			tracker.FileSkipped(name, err)
			continue
		}
		var date string
		if len(rows) > 0 {
			date = rows[0].Date.Format("2006-01-02")
		}
		out.Append(rows...)
		tracker.FileDone(name, date, len(rows), lt.Len(), engine, time.Since(start))
	}
	return out
}

// indexFile reduces one composite to per-lake rows. Every returned
// error is a skip decision for this file only; the dataset handle is
// released on all paths.
func indexFile(path string, product raster.Product, lt *lakes.Table, open OpenFunc) ([]table.IndexRow, string, error) {
	ds, engine, err := open(path)
	if err != nil {
		return nil, "", err
	}
	defer ds.Close()

	date, err := raster.InferTimestamp(path, ds, product)
	if err != nil {
		return nil, engine, err
	}
	if !ds.HasVar(ciVariable) {
		return nil, engine, fmt.Errorf("%w: %s", raster.ErrVarNotFound, ciVariable)
	}

	// Composite tiles are cut to varying extents, so the grid and the
	// per-lake selectors are rebuilt for every file.
	grid, err := raster.ReadGrid(ds)
	if err != nil {
		return nil, engine, err
	}
	a, err := ds.ReadVar(ciVariable)
	if err != nil {
		return nil, engine, err
	}
	plane, err := singlePlane(a, grid)
	if err != nil {
		return nil, engine, err
	}

	validity := ciValidity(ds)
	name := filepath.Base(path)
	rows := make([]table.IndexRow, 0, lt.Len())
	for _, lk := range lt.Lakes {
		sel := zonal.BBoxSelector(lk.Geom, grid)
		st := zonal.Reduce(plane, sel, validity, true)
		rows = append(rows, table.IndexRow{
			LakeID:  lk.ID,
			Date:    date,
			Product: string(product),
			CIMean:  st.Mean,
			CIP90:   st.P90,
			NValid:  st.NValid,
			Src:     name,
			Engine:  engine,
		})
	}
	return rows, engine, nil
}

// singlePlane extracts the one (y, x) plane of a composite variable.
// Composites carry a single time step, bare or behind a singleton time
// dimension; any other shape means the variable does not line up with
// the file's own coordinate grid, and reducing it would produce
// plausible-looking statistics from the wrong cells.
func singlePlane(a *raster.Array, g *zonal.Grid) ([]float64, error) {
	shape := a.Shape
	if len(shape) == 3 && shape[0] == 1 {
		shape = shape[1:]
	}
	if len(shape) != 2 || shape[0] != g.Ny || shape[1] != g.Nx || len(a.Data) != g.Size() {
		return nil, fmt.Errorf("variable %s shape %v does not match %dx%d grid",
			ciVariable, a.Shape, g.Ny, g.Nx)
	}
	return a.Data, nil
}

// ciValidity builds the index validity filter from the variable's
// declared range; an absent bound stays unknown and only the noise
// floor applies.
func ciValidity(ds raster.Dataset) zonal.Validity {
	min, hasMin := ds.VarAttrFloat(ciVariable, "valid_min")
	max, hasMax := ds.VarAttrFloat(ciVariable, "valid_max")
	if !hasMin {
		min = math.NaN()
	}
	if !hasMax {
		max = math.NaN()
	}
	return zonal.CIValidity(min, max)
}
