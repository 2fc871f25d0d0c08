//go:build !linux && !darwin

package sysmem

func totalSystemMemory() (uint64, bool) {
	return 0, false
}
