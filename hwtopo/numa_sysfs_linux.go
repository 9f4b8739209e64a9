// NUMA capability based on /sys/devices/system/node.

//go:build linux

package hwtopo

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/prometheus/procfs/sysfs"
)

const (
	SYSFS_NODE_DIR          = "devices/system/node"
	SYSFS_NODE_CPULIST_FILE = "cpulist"
)

var sysfsNodeDirRe = regexp.MustCompile(`^node(\d+)$`)

type SysfsNumaCapability struct {
	nodeDir string
	// Node#, sorted:
	nodes []int
	// CPU# -> node#, loaded at 1st NodeOfProcessor:
	cpuNode     map[int]int
	cpuNodeOnce sync.Once
}

func NewSysfsNumaCapability(sysfsRoot string) (*SysfsNumaCapability, error) {
	// Validate the mount point:
	if _, err := sysfs.NewFS(sysfsRoot); err != nil {
		return nil, err
	}
	c := &SysfsNumaCapability{
		nodeDir: filepath.Join(sysfsRoot, SYSFS_NODE_DIR),
		nodes:   make([]int, 0),
	}
	entries, err := os.ReadDir(c.nodeDir)
	if err != nil {
		// No NUMA, as far as the kernel is concerned:
		NumaLog.Debug(err)
		return c, nil
	}
	for _, entry := range entries {
		m := sysfsNodeDirRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		node, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		c.nodes = append(c.nodes, node)
	}
	sort.Ints(c.nodes)
	return c, nil
}

func NewPlatformNumaCapability(sysfsRoot string) (NumaCapability, error) {
	c, err := NewSysfsNumaCapability(sysfsRoot)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *SysfsNumaCapability) Available() int {
	if len(c.nodes) == 0 {
		return -1
	}
	return 0
}

func (c *SysfsNumaCapability) ConfiguredNodeCount() int {
	return len(c.nodes)
}

func (c *SysfsNumaCapability) loadCpuNode() {
	c.cpuNode = make(map[int]int)
	for _, node := range c.nodes {
		cpulistPath := filepath.Join(c.nodeDir, "node"+strconv.Itoa(node), SYSFS_NODE_CPULIST_FILE)
		data, err := os.ReadFile(cpulistPath)
		if err != nil {
			NumaLog.Warn(err)
			continue
		}
		cpus, err := ParseCPUList(string(data))
		if err != nil {
			NumaLog.Warnf("%s: %s", cpulistPath, err)
			continue
		}
		for _, cpu := range cpus {
			c.cpuNode[cpu] = node
		}
	}
}

func (c *SysfsNumaCapability) NodeOfProcessor(cpu int) int {
	c.cpuNodeOnce.Do(c.loadCpuNode)
	node, ok := c.cpuNode[cpu]
	if !ok {
		return -1
	}
	return node
}
