//go:build !linux

package hwtopo

import (
	"fmt"
	"runtime"
)

func NewPlatformNumaCapability(sysfsRoot string) (NumaCapability, error) {
	return nil, fmt.Errorf("NUMA capability not supported on %s", runtime.GOOS)
}
