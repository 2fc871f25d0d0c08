package raster

import (
	"fmt"

	"github.com/hab-forecasting/lakezonal/pkg/zonal"
)

var (
	latNames = []string{"lat", "latitude"}
	lonNames = []string{"lon", "longitude"}
)

// ReadGrid reads the coordinate grid of a dataset. Curvilinear sources
// carry full 2D lat(y,x)/lon(y,x) arrays; separable sources carry 1D
// axes, which are meshed into the same representation.
func ReadGrid(ds Dataset) (*zonal.Grid, error) {
	lat, err := readCoord(ds, latNames)
	if err != nil {
		return nil, err
	}
	lon, err := readCoord(ds, lonNames)
	if err != nil {
		return nil, err
	}

	switch {
	case len(lat.Shape) == 2 && len(lon.Shape) == 2:
		if lat.Shape[0] != lon.Shape[0] || lat.Shape[1] != lon.Shape[1] {
			return nil, fmt.Errorf("lat shape %v does not match lon shape %v", lat.Shape, lon.Shape)
		}
		return zonal.NewGrid(lat.Data, lon.Data, lat.Shape[0], lat.Shape[1])
	case len(lat.Shape) == 1 && len(lon.Shape) == 1:
		return meshGrid(lat.Data, lon.Data)
	}
	return nil, fmt.Errorf("unsupported coordinate ranks lat%v lon%v", lat.Shape, lon.Shape)
}

func readCoord(ds Dataset, names []string) (*Array, error) {
	for _, n := range names {
		if ds.HasVar(n) {
			return ds.ReadVar(n)
		}
	}
	return nil, fmt.Errorf("%v: %w", names, ErrCoordNotFound)
}

func meshGrid(lat1d, lon1d []float64) (*zonal.Grid, error) {
	ny, nx := len(lat1d), len(lon1d)
	lat := make([]float64, ny*nx)
	lon := make([]float64, ny*nx)
	for i := 0; i < ny; i++ {
		for j := 0; j < nx; j++ {
			lat[i*nx+j] = lat1d[i]
			lon[i*nx+j] = lon1d[j]
		}
	}
	return zonal.NewGrid(lat, lon, ny, nx)
}
