package raster

import "time"

// fakeDataset implements Dataset in-memory for tests.
type fakeDataset struct {
	vars     map[string]*Array
	attrs    map[string]string
	varAttrs map[string]map[string]float64
	times    []time.Time
	closed   bool
}

func (f *fakeDataset) HasVar(name string) bool {
	_, ok := f.vars[name]
	return ok
}

func (f *fakeDataset) ReadVar(name string) (*Array, error) {
	a, ok := f.vars[name]
	if !ok {
		return nil, ErrVarNotFound
	}
	return a, nil
}

func (f *fakeDataset) ReadSteps(name string, begin, end int) (*Array, error) {
	a, err := f.ReadVar(name)
	if err != nil {
		return nil, err
	}
	plane := 1
	for _, d := range a.Shape[1:] {
		plane *= d
	}
	shape := append([]int{end - begin}, a.Shape[1:]...)
	return &Array{Shape: shape, Data: a.Data[begin*plane : end*plane]}, nil
}

func (f *fakeDataset) StepCount(name string) (int, error) {
	a, err := f.ReadVar(name)
	if err != nil {
		return 0, err
	}
	return a.Shape[0], nil
}

func (f *fakeDataset) Attr(name string) (string, bool) {
	v, ok := f.attrs[name]
	return v, ok
}

func (f *fakeDataset) VarAttrFloat(varName, attr string) (float64, bool) {
	m, ok := f.varAttrs[varName]
	if !ok {
		return 0, false
	}
	v, ok := m[attr]
	return v, ok
}

func (f *fakeDataset) TimeValues() ([]time.Time, bool) {
	if len(f.times) == 0 {
		return nil, false
	}
	return f.times, true
}

func (f *fakeDataset) Close() error {
	f.closed = true
	return nil
}
