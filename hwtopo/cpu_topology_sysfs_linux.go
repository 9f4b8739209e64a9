// Fill in package and core ids missing from cpuinfo (e.g. arm64, which has no
// "physical id" or "core id" lines) from /sys/devices/system/cpu/cpuN/topology.

//go:build linux

package hwtopo

import (
	"strconv"

	"github.com/prometheus/procfs/sysfs"
)

func FillMissingTopologyFromSysfs(records []*RawThreadRecord, sysfsRoot string) {
	missing := make(map[int]*RawThreadRecord)
	for _, rec := range records {
		if !rec.hasPackageId || !rec.hasCoreId {
			missing[rec.LogicalId] = rec
		}
	}
	if len(missing) == 0 {
		return
	}

	fs, err := sysfs.NewFS(sysfsRoot)
	if err != nil {
		CpuinfoLog.Warnf("%d processor(s) w/o package/core id: %s", len(missing), err)
		return
	}
	cpus, err := fs.CPUs()
	if err != nil {
		CpuinfoLog.Warnf("%d processor(s) w/o package/core id: %s", len(missing), err)
		return
	}
	for _, cpu := range cpus {
		cpuNum, err := strconv.Atoi(cpu.Number())
		if err != nil {
			continue
		}
		rec := missing[cpuNum]
		if rec == nil {
			continue
		}
		topology, err := cpu.Topology()
		if err != nil {
			CpuinfoLog.Debugf("cpu%d: %s", cpuNum, err)
			continue
		}
		if !rec.hasPackageId {
			if packageId, err := strconv.Atoi(topology.PhysicalPackageID); err == nil {
				rec.PackageId = packageId
				rec.hasPackageId = true
			}
		}
		if !rec.hasCoreId {
			if coreId, err := strconv.Atoi(topology.CoreID); err == nil {
				rec.CoreId = coreId
				rec.hasCoreId = true
			}
		}
		if rec.hasPackageId && rec.hasCoreId {
			delete(missing, cpuNum)
		}
	}
	if len(missing) > 0 {
		CpuinfoLog.Warnf(
			"%d processor(s) w/o package/core id, assuming package 0, core 0",
			len(missing),
		)
	}
}
