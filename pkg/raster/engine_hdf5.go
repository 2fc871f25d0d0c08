package raster

import (
	"fmt"
	"time"

	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// h5Dataset is the secondary engine: a direct HDF5 reader for NetCDF-4
// containers the primary engine rejects, typically over nonstandard
// dimension naming. Datasets are addressed by path, so no dimension
// metadata is required at all. Reads are whole-variable; the index files
// this engine falls back on hold a single time step each.
type h5Dataset struct {
	f *hdf5.File
}

func openHDF5(path string) (Dataset, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, err
	}
	return &h5Dataset{f: f}, nil
}

func (d *h5Dataset) HasVar(name string) bool {
	_, err := d.f.OpenDataset("/" + name)
	return err == nil
}

func (d *h5Dataset) ReadVar(name string) (*Array, error) {
	set, err := d.f.OpenDataset("/" + name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrVarNotFound)
	}
	data, err := set.ReadFloat64()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	dims := set.Shape()
	shape := make([]int, len(dims))
	for i, v := range dims {
		shape[i] = int(v)
	}
	a := &Array{Shape: shape, Data: data}
	fill, hasFill, scale, offset := cfAttrs(d, name)
	applyCF(a, fill, hasFill, scale, offset)
	return a, nil
}

func (d *h5Dataset) ReadSteps(name string, begin, end int) (*Array, error) {
	a, err := d.ReadVar(name)
	if err != nil {
		return nil, err
	}
	if len(a.Shape) < 2 || begin < 0 || end > a.Shape[0] || begin >= end {
		return nil, fmt.Errorf("read %s[%d:%d]: out of range for shape %v", name, begin, end, a.Shape)
	}
	plane := 1
	for _, d := range a.Shape[1:] {
		plane *= d
	}
	shape := append([]int{end - begin}, a.Shape[1:]...)
	return &Array{Shape: shape, Data: a.Data[begin*plane : end*plane]}, nil
}

func (d *h5Dataset) StepCount(name string) (int, error) {
	set, err := d.f.OpenDataset("/" + name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, ErrVarNotFound)
	}
	dims := set.Shape()
	if len(dims) == 0 {
		return 1, nil
	}
	return int(dims[0]), nil
}

func (d *h5Dataset) Attr(name string) (string, bool) {
	v, err := d.f.ReadAttr("/@" + name)
	if err != nil {
		return "", false
	}
	return attrString(v), true
}

func (d *h5Dataset) VarAttrFloat(varName, attr string) (float64, bool) {
	v, err := d.f.ReadAttr("/" + varName + "@" + attr)
	if err != nil {
		return 0, false
	}
	return attrFloat(v)
}

func (d *h5Dataset) TimeValues() ([]time.Time, bool) {
	if !d.HasVar("time") {
		return nil, false
	}
	set, err := d.f.OpenDataset("/time")
	if err != nil {
		return nil, false
	}
	vals, err := set.ReadFloat64()
	if err != nil {
		return nil, false
	}
	units, err := d.f.ReadAttr("/time@units")
	if err != nil {
		return nil, false
	}
	ts, err := decodeCFTimes(vals, attrString(units))
	if err != nil {
		return nil, false
	}
	return ts, true
}

func (d *h5Dataset) Close() error {
	return d.f.Close()
}
