package zonal

import (
	"github.com/ctessum/geom"

	"github.com/hab-forecasting/lakezonal/pkg/lakes"
	"github.com/hab-forecasting/lakezonal/pkg/logging"
)

// Selector marks the raster cells belonging to one lake. Its shape always
// matches the coordinate grid it was built against.
type Selector struct {
	Ny, Nx int
	Cells  []bool
	// indices of true cells, kept so reductions touch only member cells
	idx []int
}

// Count returns the number of selected cells.
func (s *Selector) Count() int { return len(s.idx) }

// Indices returns the flat indices of the selected cells. The slice is
// shared, not copied; callers must not modify it.
func (s *Selector) Indices() []int { return s.idx }

func newSelector(ny, nx int) *Selector {
	return &Selector{Ny: ny, Nx: nx, Cells: make([]bool, ny*nx)}
}

func (s *Selector) set(i int) {
	s.Cells[i] = true
	s.idx = append(s.idx, i)
}

// BuildMask computes the exact membership mask for one polygon: a cell is
// a member iff its (lon, lat) point lies within the polygon. Cells outside
// the polygon's bounding box are rejected without a containment test, so
// the pass stays cheap on continental grids.
func BuildMask(poly geom.Polygonal, g *Grid) *Selector {
	s := newSelector(g.Ny, g.Nx)
	b := poly.Bounds()
	for i := 0; i < g.Size(); i++ {
		lon, lat := g.Lon[i], g.Lat[i]
		if lon < b.Min.X || lon > b.Max.X || lat < b.Min.Y || lat > b.Max.Y {
			continue
		}
		w := geom.Point{X: lon, Y: lat}.Within(poly)
		if w == geom.Inside || w == geom.OnEdge {
			s.set(i)
		}
	}
	return s
}

// BuildMasks builds the per-lake mask table for a fixed grid. An empty
// mask (polygon smaller than a cell, or a CRS mismatch) is a warning and
// yields NaN statistics downstream; it never aborts the run.
func BuildMasks(t *lakes.Table, g *Grid) map[string]*Selector {
	masks := make(map[string]*Selector, t.Len())
	for _, lk := range t.Lakes {
		m := BuildMask(lk.Geom, g)
		if m.Count() == 0 {
			logging.L().Warn().
				Str("lake_id", lk.ID).
				Msg("mask has no cells; check geometry/CRS")
		}
		masks[lk.ID] = m
	}
	return masks
}
