// Package zonal computes per-lake statistics over gridded raster data.
//
// A lake is reduced against a raster slice through a cell-membership
// selector: either an exact point-in-polygon mask built once per run, or
// a rectangular bounding-box selector recomputed per file for sources
// whose coordinate grids are not trusted to stay fixed.
package zonal

import "fmt"

// Grid holds the 2D coordinate arrays of a raster source in row-major
// order with shape (Ny, Nx). The grid may be curvilinear: Lat and Lon are
// full per-cell arrays, not separable row/column axes. Cell (i, j) is at
// Lat[i*Nx+j], Lon[i*Nx+j].
type Grid struct {
	Ny, Nx int
	Lat    []float64
	Lon    []float64
}

// NewGrid validates that both coordinate arrays match the declared shape.
func NewGrid(lat, lon []float64, ny, nx int) (*Grid, error) {
	if ny <= 0 || nx <= 0 {
		return nil, fmt.Errorf("invalid grid shape (%d, %d)", ny, nx)
	}
	if len(lat) != ny*nx || len(lon) != ny*nx {
		return nil, fmt.Errorf("coordinate arrays (%d, %d values) do not match shape (%d, %d)",
			len(lat), len(lon), ny, nx)
	}
	return &Grid{Ny: ny, Nx: nx, Lat: lat, Lon: lon}, nil
}

// Size returns the cell count.
func (g *Grid) Size() int { return g.Ny * g.Nx }
