package raster

import (
	"bytes"
	"fmt"
	"os"
)

// ContainerKind is the binary container family detected from the file
// signature.
type ContainerKind int

const (
	// KindHDF5 marks an HDF5 container (NetCDF-4 files included).
	KindHDF5 ContainerKind = iota
	// KindClassic marks a classic NetCDF (CDF-1/2/5) container.
	KindClassic
)

var (
	hdf5Magic    = []byte("\x89HDF\r\n\x1a\n")
	classicMagic = []byte("CDF")
)

// Sniff checks the leading bytes of a file against the known container
// magic numbers. It is the cheap pre-filter that rejects obviously
// non-raster files before any decode attempt is made.
func Sniff(path string) (ContainerKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("sniff %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 8)
	n, _ := f.Read(head)
	head = head[:n]

	switch {
	case bytes.HasPrefix(head, hdf5Magic):
		return KindHDF5, nil
	case bytes.HasPrefix(head, classicMagic):
		return KindClassic, nil
	}
	return 0, fmt.Errorf("%s: %w", path, ErrBadSignature)
}
