//go:build !linux

package hwtopo

import (
	"runtime"
)

func bindSelfPlatform(osHardwareContext int) error {
	return ErrAffinityNotSupported
}

func GetSelfAffinity() ([]int, error) {
	return nil, ErrAffinityNotSupported
}

func CountAvailableCPUs() int {
	return runtime.NumCPU()
}
