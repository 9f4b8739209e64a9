//go:build linux

package hwtopo

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func bindSelfPlatform(osHardwareContext int) error {
	runtime.LockOSThread()
	cpuSet := unix.CPUSet{}
	cpuSet.Set(osHardwareContext)
	// pid 0 is the calling thread:
	return unix.SchedSetaffinity(0, &cpuSet)
}

// Return the sorted list of CPUs the calling thread may run on:
func GetSelfAffinity() ([]int, error) {
	cpuSet := unix.CPUSet{}
	err := unix.SchedGetaffinity(0, &cpuSet)
	if err != nil {
		return nil, err
	}
	count := cpuSet.Count()
	cpus := make([]int, 0, count)
	for cpu := 0; len(cpus) < count; cpu++ {
		if cpuSet.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}

// For linux count available CPUs based on CPU affinity, w/ a fallback on runtime:
func CountAvailableCPUs() int {
	cpuSet := unix.CPUSet{}
	err := unix.SchedGetaffinity(0, &cpuSet)
	if err != nil {
		AffinityLog.Warn(err)
		return runtime.NumCPU()
	}
	return cpuSet.Count()
}
