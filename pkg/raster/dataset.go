// Package raster opens gridded scientific raster files through a chain
// of decode engines and presents them behind one engine-independent
// Dataset view. Values are always surfaced as float64 with missing cells
// mapped to NaN.
package raster

import (
	"fmt"
	"math"
	"reflect"
	"time"
)

// Array is a dense n-dimensional variable read, row-major.
type Array struct {
	Shape []int
	Data  []float64
}

// Steps returns the length of the outermost dimension (1 for 2D reads).
func (a *Array) Steps() int {
	if len(a.Shape) < 3 {
		return 1
	}
	return a.Shape[0]
}

// Plane returns the (ny, nx) shape of the trailing two dimensions.
func (a *Array) Plane() (ny, nx int, err error) {
	if len(a.Shape) < 2 {
		return 0, 0, fmt.Errorf("array rank %d has no 2D plane", len(a.Shape))
	}
	return a.Shape[len(a.Shape)-2], a.Shape[len(a.Shape)-1], nil
}

// Dataset is an opened raster file, independent of the engine that
// decoded it. Implementations release the underlying handle on Close on
// both success and failure paths of the per-file loop.
type Dataset interface {
	// HasVar reports whether the named variable exists.
	HasVar(name string) bool
	// ReadVar reads a whole variable.
	ReadVar(name string) (*Array, error)
	// ReadSteps reads steps [begin, end) of the outermost dimension,
	// letting large time-stacked variables be consumed in chunks.
	ReadSteps(name string, begin, end int) (*Array, error)
	// StepCount returns the outermost dimension length of a variable.
	StepCount(name string) (int, error)
	// Attr returns a file-level attribute rendered as a string.
	Attr(name string) (string, bool)
	// VarAttrFloat returns a numeric attribute of a variable.
	VarAttrFloat(varName, attr string) (float64, bool)
	// TimeValues returns the decoded time coordinate, when one exists.
	TimeValues() ([]time.Time, bool)
	// Close releases the file handle.
	Close() error
}

// toFloat64s converts an engine read (nested slices of any numeric type)
// into a flat float64 array with its shape.
func toFloat64s(v interface{}) (*Array, error) {
	shape, err := sliceShape(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	n := 1
	for _, d := range shape {
		n *= d
	}
	a := &Array{Shape: shape, Data: make([]float64, 0, n)}
	if err := appendFloats(reflect.ValueOf(v), len(shape), &a.Data); err != nil {
		return nil, err
	}
	if len(a.Data) != n {
		return nil, fmt.Errorf("ragged variable data: got %d values for shape %v", len(a.Data), shape)
	}
	return a, nil
}

func sliceShape(rv reflect.Value) ([]int, error) {
	var shape []int
	for rv.Kind() == reflect.Slice {
		shape = append(shape, rv.Len())
		if rv.Len() == 0 {
			break
		}
		rv = rv.Index(0)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("variable data is %s, not a slice", rv.Kind())
	}
	return shape, nil
}

func appendFloats(rv reflect.Value, depth int, out *[]float64) error {
	if depth == 1 {
		for i := 0; i < rv.Len(); i++ {
			e := rv.Index(i)
			switch e.Kind() {
			case reflect.Float32, reflect.Float64:
				*out = append(*out, e.Float())
			case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
				*out = append(*out, float64(e.Int()))
			case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
				*out = append(*out, float64(e.Uint()))
			default:
				return fmt.Errorf("unsupported variable element type %s", e.Kind())
			}
		}
		return nil
	}
	for i := 0; i < rv.Len(); i++ {
		if err := appendFloats(rv.Index(i), depth-1, out); err != nil {
			return err
		}
	}
	return nil
}

// applyCF applies the CF conventions shared by both engines: fill values
// become NaN, then scale_factor/add_offset unpack the stored integers.
func applyCF(a *Array, fill float64, hasFill bool, scale, offset float64) {
	for i, x := range a.Data {
		if hasFill && x == fill {
			a.Data[i] = math.NaN()
			continue
		}
		if scale != 1 || offset != 0 {
			a.Data[i] = x*scale + offset
		}
	}
}

// cfAttrs pulls the packing attributes for a variable from a Dataset.
func cfAttrs(ds Dataset, name string) (fill float64, hasFill bool, scale, offset float64) {
	scale, offset = 1, 0
	if v, ok := ds.VarAttrFloat(name, "_FillValue"); ok {
		fill, hasFill = v, true
	} else if v, ok := ds.VarAttrFloat(name, "missing_value"); ok {
		fill, hasFill = v, true
	}
	if v, ok := ds.VarAttrFloat(name, "scale_factor"); ok {
		scale = v
	}
	if v, ok := ds.VarAttrFloat(name, "add_offset"); ok {
		offset = v
	}
	return fill, hasFill, scale, offset
}
