package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/hab-forecasting/lakezonal/pkg/lakes"
	"github.com/hab-forecasting/lakezonal/pkg/logging"
	"github.com/hab-forecasting/lakezonal/pkg/raster"
	"github.com/hab-forecasting/lakezonal/pkg/table"
	"github.com/hab-forecasting/lakezonal/pkg/zonal"
)

// climateFileTemplate is the Daymet v4 North America daily filename
// layout: one file per variable per year.
const climateFileTemplate = "daymet_v4_daily_na_%s_%d.nc"

// ClimateConfig configures one climate extraction run.
type ClimateConfig struct {
	// Dir holds the per-variable yearly raster files.
	Dir string
	// LakesPath is the lake polygon shapefile.
	LakesPath string
	// Year selects the yearly files.
	Year int
	// Vars is the variable set; empty means the full default set.
	Vars []string
	// Out is the output table path (.csv or parquet).
	Out string
	// Open decodes one raster; nil uses the default engine chain.
	Open OpenFunc
}

// RunClimate extracts per-lake daily means for each climate variable
// and writes the joined long table. Any missing variable file or
// variable is fatal to the whole run: a partial climate table silently
// biases downstream feature sets.
func RunClimate(cfg ClimateConfig) error {
	log := logging.WithPhase("climate")
	open := cfg.Open
	if open == nil {
		open = defaultOpen
	}
	vars := cfg.Vars
	if len(vars) == 0 {
		vars = table.ClimateVariables
	}

	lt, err := lakes.Load(cfg.LakesPath)
	if err != nil {
		return fmt.Errorf("load lakes: %w", err)
	}
	log.Info().Int("lakes", lt.Len()).Str("path", cfg.LakesPath).Msg("lake table loaded")

	// All variables of a Daymet year share one grid, so masks are
	// built once from the first variable's file.
	firstPath := filepath.Join(cfg.Dir, fmt.Sprintf(climateFileTemplate, vars[0], cfg.Year))
	grid, masks, err := climateMasks(firstPath, lt, open)
	if err != nil {
		return err
	}

	out := table.NewClimateTable()
	tracker := logging.NewFileTracker("climate", int64(len(vars)), log)
	for _, v := range vars {
		path := filepath.Join(cfg.Dir, fmt.Sprintf(climateFileTemplate, v, cfg.Year))
		tracker.FileStarted(filepath.Base(path))
		start := time.Now()
		times, engine, err := extractVariable(path, v, grid, masks, lt, out, open)
		if err != nil {
			return fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		tracker.FileDone(filepath.Base(path), dateLabel(times),
			len(times)*len(masks), len(masks), engine, time.Since(start))
	}
	tracker.Summary()

	rows := out.Rows()
	if err := table.WriteClimate(cfg.Out, rows); err != nil {
		return fmt.Errorf("write %s: %w", cfg.Out, err)
	}
	log.Info().Int("rows", len(rows)).Str("out", cfg.Out).Msg("climate table written")
	return nil
}

// climateMasks reads the coordinate grid from one file and builds the
// exact per-lake membership masks used for every variable.
func climateMasks(path string, lt *lakes.Table, open OpenFunc) (*zonal.Grid, map[string]*zonal.Selector, error) {
	ds, _, err := open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open grid file %s: %w", filepath.Base(path), err)
	}
	defer ds.Close()

	grid, err := raster.ReadGrid(ds)
	if err != nil {
		return nil, nil, fmt.Errorf("read grid from %s: %w", filepath.Base(path), err)
	}
	masks := zonal.BuildMasks(lt, grid)
	return grid, masks, nil
}

// extractVariable reduces one variable's (time, y, x) stack to per-lake
// daily means, consuming the time dimension in memory-bounded chunks.
func extractVariable(path, name string, grid *zonal.Grid, masks map[string]*zonal.Selector,
	lt *lakes.Table, out *table.ClimateTable, open OpenFunc) ([]time.Time, string, error) {

	ds, engine, err := open(path)
	if err != nil {
		return nil, "", err
	}
	defer ds.Close()

	if !ds.HasVar(name) {
		return nil, engine, fmt.Errorf("%w: %s", raster.ErrVarNotFound, name)
	}
	times, ok := ds.TimeValues()
	if !ok {
		return nil, engine, raster.ErrNoTimestamp
	}
	steps, err := ds.StepCount(name)
	if err != nil {
		return nil, engine, err
	}
	if steps != len(times) {
		return nil, engine, fmt.Errorf("variable %s has %d steps but %d time values", name, steps, len(times))
	}

	names := make(map[string]string, lt.Len())
	for _, lk := range lt.Lakes {
		names[lk.ID] = lk.Name
	}

	chunk := chunkSteps(grid.Size())
	validity := zonal.NoFilter()
	for begin := 0; begin < steps; begin += chunk {
		end := begin + chunk
		if end > steps {
			end = steps
		}
		a, err := ds.ReadSteps(name, begin, end)
		if err != nil {
			return nil, engine, fmt.Errorf("read %s[%d:%d]: %w", name, begin, end, err)
		}
		if len(a.Data) != (end-begin)*grid.Size() {
			return nil, engine, fmt.Errorf("variable %s chunk has %d values, want %d",
				name, len(a.Data), (end-begin)*grid.Size())
		}
		for id, sel := range masks {
			stats := zonal.CubeMeans(a.Data, end-begin, sel, validity)
			for t, st := range stats {
				out.Add(id, names[id], dateOnly(times[begin+t]), name, st.Mean)
			}
		}
	}
	return times, engine, nil
}
