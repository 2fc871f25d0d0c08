package raster

import (
	"fmt"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// ncDataset is the primary engine, backed by the pure-Go NetCDF reader.
// It handles both classic and NetCDF-4 containers and supports slicing
// along the outermost dimension, so chunked reads stay lazy.
type ncDataset struct {
	g api.Group
}

func openNetCDF(path string) (Dataset, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	return &ncDataset{g: g}, nil
}

func (d *ncDataset) HasVar(name string) bool {
	for _, v := range d.g.ListVariables() {
		if v == name {
			return true
		}
	}
	return false
}

func (d *ncDataset) getter(name string) (api.VarGetter, error) {
	vg, err := d.g.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrVarNotFound)
	}
	return vg, nil
}

func (d *ncDataset) ReadVar(name string) (*Array, error) {
	vg, err := d.getter(name)
	if err != nil {
		return nil, err
	}
	raw, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return d.finish(name, raw)
}

func (d *ncDataset) ReadSteps(name string, begin, end int) (*Array, error) {
	vg, err := d.getter(name)
	if err != nil {
		return nil, err
	}
	raw, err := vg.GetSlice(int64(begin), int64(end))
	if err != nil {
		return nil, fmt.Errorf("read %s[%d:%d]: %w", name, begin, end, err)
	}
	return d.finish(name, raw)
}

func (d *ncDataset) finish(name string, raw interface{}) (*Array, error) {
	a, err := toFloat64s(raw)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", name, err)
	}
	fill, hasFill, scale, offset := cfAttrs(d, name)
	applyCF(a, fill, hasFill, scale, offset)
	return a, nil
}

func (d *ncDataset) StepCount(name string) (int, error) {
	vg, err := d.getter(name)
	if err != nil {
		return 0, err
	}
	return int(vg.Len()), nil
}

func (d *ncDataset) Attr(name string) (string, bool) {
	v, ok := d.g.Attributes().Get(name)
	if !ok {
		return "", false
	}
	return attrString(v), true
}

func (d *ncDataset) VarAttrFloat(varName, attr string) (float64, bool) {
	vg, err := d.g.GetVarGetter(varName)
	if err != nil {
		return 0, false
	}
	v, ok := vg.Attributes().Get(attr)
	if !ok {
		return 0, false
	}
	return attrFloat(v)
}

func (d *ncDataset) TimeValues() ([]time.Time, bool) {
	if !d.HasVar("time") {
		return nil, false
	}
	vg, err := d.g.GetVarGetter("time")
	if err != nil {
		return nil, false
	}
	raw, err := vg.Values()
	if err != nil {
		return nil, false
	}
	a, err := toFloat64s(raw)
	if err != nil {
		return nil, false
	}
	units, ok := vg.Attributes().Get("units")
	if !ok {
		return nil, false
	}
	ts, err := decodeCFTimes(a.Data, attrString(units))
	if err != nil {
		return nil, false
	}
	return ts, true
}

func (d *ncDataset) Close() error {
	d.g.Close()
	return nil
}
