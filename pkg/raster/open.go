package raster

import (
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/cdf"
	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// Engine is one decode backend: a name used only for diagnostics and
// output rows, and a pure open function. An engine failure never affects
// the next attempt.
type Engine struct {
	Name string
	Open func(path string) (Dataset, error)
}

// DefaultEngines returns the decode chain in priority order.
func DefaultEngines() []Engine {
	return []Engine{
		{Name: "netcdf", Open: openNetCDF},
		{Name: "hdf5", Open: openHDF5},
	}
}

// DecodeError reports that every engine rejected a file, with the reason
// from each attempt and the result of the low-level container probe.
type DecodeError struct {
	Path     string
	Attempts []error
	Probe    string
}

func (e *DecodeError) Error() string {
	reasons := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		reasons[i] = a.Error()
	}
	return fmt.Sprintf("%s: all decode engines failed (%s); %s",
		e.Path, strings.Join(reasons, " | "), e.Probe)
}

func (e *DecodeError) Unwrap() error { return ErrAllEnginesFailed }

// Open decodes a raster file through the engine chain. The signature
// check runs first and short-circuits non-raster files without any parse
// attempt. On success it returns the dataset and the name of the engine
// that decoded it; the caller owns the handle and must Close it.
func Open(path string, engines []Engine) (Dataset, string, error) {
	kind, err := Sniff(path)
	if err != nil {
		return nil, "", err
	}

	var attempts []error
	for _, e := range engines {
		ds, err := e.Open(path)
		if err == nil {
			return ds, e.Name, nil
		}
		attempts = append(attempts, fmt.Errorf("%s: %w", e.Name, err))
	}

	return nil, "", &DecodeError{Path: path, Attempts: attempts, Probe: probe(path, kind)}
}

// probe distinguishes "wrong decoder" from "corrupt file" after every
// engine has failed, by opening the container at the lowest level that
// knows its format.
func probe(path string, kind ContainerKind) string {
	switch kind {
	case KindHDF5:
		f, err := hdf5.Open(path)
		if err != nil {
			return fmt.Sprintf("container unreadable: %v", err)
		}
		f.Close()
	case KindClassic:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Sprintf("container unreadable: %v", err)
		}
		defer f.Close()
		if _, err := cdf.Open(f); err != nil {
			return fmt.Sprintf("container unreadable: %v", err)
		}
	}
	return "container readable but not decodable by any engine (unsupported layout?)"
}
