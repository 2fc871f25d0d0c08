package raster

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		wantKind ContainerKind
		wantErr  bool
	}{
		{"hdf5", append([]byte("\x89HDF\r\n\x1a\n"), make([]byte, 16)...), KindHDF5, false},
		{"classic cdf1", append([]byte("CDF\x01"), make([]byte, 16)...), KindClassic, false},
		{"classic cdf2", append([]byte("CDF\x02"), make([]byte, 16)...), KindClassic, false},
		{"garbage", []byte("notaraster file at all"), 0, true},
		{"empty", nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.name+".nc", tt.data)
			kind, err := Sniff(path)
			if tt.wantErr {
				if !errors.Is(err, ErrBadSignature) {
					t.Fatalf("err = %v, want ErrBadSignature", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", kind, tt.wantKind)
			}
		})
	}
}

func TestSniff_MissingFile(t *testing.T) {
	if _, err := Sniff(filepath.Join(t.TempDir(), "nope.nc")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
