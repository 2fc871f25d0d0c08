package zonal

import "github.com/ctessum/geom"

// BBoxSelector keeps the cells whose coordinates fall inside the
// polygon's bounding rectangle. It deliberately skips exact containment:
// the index rasters carry per-file curvilinear grids that are not trusted
// to align with the polygon geometry, and the rectangle is always a
// superset of the true membership set.
//
// Selectors are recomputed per file because grid shape and extent may
// differ between files of the same dataset.
func BBoxSelector(poly geom.Polygonal, g *Grid) *Selector {
	b := poly.Bounds()
	s := newSelector(g.Ny, g.Nx)
	for i := 0; i < g.Size(); i++ {
		if g.Lon[i] >= b.Min.X && g.Lon[i] <= b.Max.X &&
			g.Lat[i] >= b.Min.Y && g.Lat[i] <= b.Max.Y {
			s.set(i)
		}
	}
	return s
}
