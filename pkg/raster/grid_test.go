package raster

import (
	"errors"
	"testing"
)

func TestReadGrid_Curvilinear(t *testing.T) {
	ds := &fakeDataset{vars: map[string]*Array{
		"lat": {Shape: []int{2, 3}, Data: []float64{40, 40, 40, 41, 41, 41}},
		"lon": {Shape: []int{2, 3}, Data: []float64{-84, -83, -82, -84, -83, -82}},
	}}
	g, err := ReadGrid(ds)
	if err != nil {
		t.Fatal(err)
	}
	if g.Ny != 2 || g.Nx != 3 {
		t.Fatalf("shape = (%d, %d), want (2, 3)", g.Ny, g.Nx)
	}
	if g.Lat[4] != 41 || g.Lon[4] != -83 {
		t.Errorf("cell (1,1) = (%g, %g), want (41, -83)", g.Lat[4], g.Lon[4])
	}
}

func TestReadGrid_SeparableAxes(t *testing.T) {
	ds := &fakeDataset{vars: map[string]*Array{
		"latitude":  {Shape: []int{2}, Data: []float64{40, 41}},
		"longitude": {Shape: []int{3}, Data: []float64{-84, -83, -82}},
	}}
	g, err := ReadGrid(ds)
	if err != nil {
		t.Fatal(err)
	}
	if g.Ny != 2 || g.Nx != 3 {
		t.Fatalf("shape = (%d, %d), want (2, 3)", g.Ny, g.Nx)
	}
	// Meshed: every row repeats lon, every column repeats lat.
	if g.Lat[3] != 41 || g.Lon[3] != -84 {
		t.Errorf("cell (1,0) = (%g, %g), want (41, -84)", g.Lat[3], g.Lon[3])
	}
}

func TestReadGrid_MissingCoords(t *testing.T) {
	_, err := ReadGrid(&fakeDataset{vars: map[string]*Array{}})
	if !errors.Is(err, ErrCoordNotFound) {
		t.Fatalf("err = %v, want ErrCoordNotFound", err)
	}
}

func TestReadGrid_ShapeMismatch(t *testing.T) {
	ds := &fakeDataset{vars: map[string]*Array{
		"lat": {Shape: []int{2, 3}, Data: make([]float64, 6)},
		"lon": {Shape: []int{3, 2}, Data: make([]float64, 6)},
	}}
	if _, err := ReadGrid(ds); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}
