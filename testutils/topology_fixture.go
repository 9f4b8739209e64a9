// Synthetic /proc and /sys trees for topology tests.

package testutils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	FIXTURE_PID = 4242

	FIXTURE_PROCFS_DIR = "proc"
	FIXTURE_SYSFS_DIR  = "sys"
)

// One /proc/cpuinfo block:
type FixtureProcessor struct {
	Processor  int
	PhysicalId int
	CoreId     int
	Siblings   int
	CpuCores   int
	// Omit "physical id" and "core id", arm64 style:
	OmitIds bool
}

// One /sys/devices/system/cpu/cpuN/topology:
type FixtureSysfsCpu struct {
	Cpu               int
	PhysicalPackageId int
	CoreId            int
}

type TopologyFixture struct {
	Processors []FixtureProcessor
	// Whether to create /proc/PID/status:
	NoStatus bool
	// The Cpus_allowed_list value, nil for no such line:
	CpusAllowedList *string
	// NUMA node# -> cpulist, no node dirs if empty:
	NumaNodes map[string]string
	SysfsCpus []FixtureSysfsCpu
}

// Build the processor list for a regular machine. The numbering follows the
// common x86 enumeration: all the 1st threads of all the cores of all the
// packages, then all the 2nd threads, etc.
func RegularMachineProcessors(packages, coresPerPackage, threadsPerCore int) []FixtureProcessor {
	processors := make([]FixtureProcessor, 0, packages*coresPerPackage*threadsPerCore)
	cpu := 0
	for thread := 0; thread < threadsPerCore; thread++ {
		for pkg := 0; pkg < packages; pkg++ {
			for core := 0; core < coresPerPackage; core++ {
				processors = append(processors, FixtureProcessor{
					Processor:  cpu,
					PhysicalId: pkg,
					CoreId:     core,
					Siblings:   coresPerPackage * threadsPerCore,
					CpuCores:   coresPerPackage,
				})
				cpu++
			}
		}
	}
	return processors
}

func (f *TopologyFixture) cpuinfo() []byte {
	buf := &bytes.Buffer{}
	for _, p := range f.Processors {
		fmt.Fprintf(buf, "processor\t: %d\n", p.Processor)
		fmt.Fprintf(buf, "vendor_id\t: GenuineIntel\n")
		fmt.Fprintf(buf, "model name\t: Fixture CPU @ 2.00GHz\n")
		if !p.OmitIds {
			fmt.Fprintf(buf, "physical id\t: %d\n", p.PhysicalId)
		}
		fmt.Fprintf(buf, "siblings\t: %d\n", p.Siblings)
		if !p.OmitIds {
			fmt.Fprintf(buf, "core id\t\t: %d\n", p.CoreId)
		}
		fmt.Fprintf(buf, "cpu cores\t: %d\n", p.CpuCores)
		fmt.Fprintf(buf, "flags\t\t: fpu vme de pse tsc msr\n")
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func (f *TopologyFixture) status() []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "Name:\thwtopo.test\n")
	fmt.Fprintf(buf, "State:\tR (running)\n")
	fmt.Fprintf(buf, "Pid:\t%d\n", FIXTURE_PID)
	fmt.Fprintf(buf, "Threads:\t1\n")
	if f.CpusAllowedList != nil {
		fmt.Fprintf(buf, "Cpus_allowed_list:\t%s\n", *f.CpusAllowedList)
	}
	fmt.Fprintf(buf, "voluntary_ctxt_switches:\t1\n")
	return buf.Bytes()
}

func writeFixtureFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Write the fixture under root, return the procfs and sysfs roots.
func (f *TopologyFixture) Write(root string) (string, string, error) {
	procfsRoot := filepath.Join(root, FIXTURE_PROCFS_DIR)
	sysfsRoot := filepath.Join(root, FIXTURE_SYSFS_DIR)
	for _, dir := range []string{procfsRoot, sysfsRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", "", err
		}
	}

	if err := writeFixtureFile(filepath.Join(procfsRoot, "cpuinfo"), f.cpuinfo()); err != nil {
		return "", "", err
	}

	pidDir := filepath.Join(procfsRoot, strconv.Itoa(FIXTURE_PID))
	if err := os.MkdirAll(pidDir, 0o755); err != nil {
		return "", "", err
	}
	if err := os.Symlink(strconv.Itoa(FIXTURE_PID), filepath.Join(procfsRoot, "self")); err != nil {
		return "", "", err
	}
	if !f.NoStatus {
		if err := writeFixtureFile(filepath.Join(pidDir, "status"), f.status()); err != nil {
			return "", "", err
		}
	}

	nodes := make([]string, 0, len(f.NumaNodes))
	for node := range f.NumaNodes {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		path := filepath.Join(sysfsRoot, "devices/system/node", "node"+node, "cpulist")
		if err := writeFixtureFile(path, []byte(f.NumaNodes[node]+"\n")); err != nil {
			return "", "", err
		}
	}

	for _, cpu := range f.SysfsCpus {
		topologyDir := filepath.Join(sysfsRoot, "devices/system/cpu", "cpu"+strconv.Itoa(cpu.Cpu), "topology")
		for name, value := range map[string]string{
			"physical_package_id":  strconv.Itoa(cpu.PhysicalPackageId),
			"core_id":              strconv.Itoa(cpu.CoreId),
			"core_siblings_list":   strconv.Itoa(cpu.Cpu),
			"thread_siblings_list": strconv.Itoa(cpu.Cpu),
		} {
			if err := writeFixtureFile(filepath.Join(topologyDir, name), []byte(value+"\n")); err != nil {
				return "", "", err
			}
		}
	}

	return procfsRoot, sysfsRoot, nil
}

// Convenience for optional strings in test case tables:
func StringPtr(s string) *string {
	return &s
}

// Format a list of ints as a compact CPU list, e.g. "0-3,8":
func FormatCPUList(cpus []int) string {
	sorted := make([]int, len(cpus))
	copy(sorted, cpus)
	sort.Ints(sorted)
	parts := make([]string, 0)
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, strconv.Itoa(sorted[i]))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", sorted[i], sorted[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}
