// Process-wide topology cache.
//
// The topology is assumed static for the lifetime of the process, so it is
// built at most once, by the 1st caller, and shared by all the others.

package hwtopo

import (
	"sync"
)

var TopologyCacheLog = Log.WithField(
	LOGGER_COMPONENT_FIELD_NAME,
	"TopologyCache",
)

type TopologyBuildFn func() (*HWTopoInfo, error)

type TopologyCache struct {
	build TopologyBuildFn
	info  *HWTopoInfo
	lock  sync.Mutex
}

func NewTopologyCache(build TopologyBuildFn) *TopologyCache {
	return &TopologyCache{build: build}
}

func NewTopologyCacheFromBuilder(builder *TopologyBuilder) *TopologyCache {
	return NewTopologyCache(builder.Build)
}

// Return the cached topology, building it if needed. A failed build is not
// cached, the next call will retry.
func (c *TopologyCache) Build() (*HWTopoInfo, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.info == nil {
		info, err := c.build()
		if err != nil {
			return nil, err
		}
		c.info = info
	}
	return c.info, nil
}

// Same as Build, except that the process exits if the topology cannot be
// built; there is no point in continuing w/o it.
func (c *TopologyCache) GetTopology() *HWTopoInfo {
	info, err := c.Build()
	if err != nil {
		TopologyCacheLog.Fatal(err)
		return nil
	}
	return info
}

var GlobalNumaDetector = NewPlatformNumaDetector(DEFAULT_SYSFS_ROOT)

var GlobalTopologyCache = NewTopologyCacheFromBuilder(
	NewTopologyBuilder(DEFAULT_PROCFS_ROOT, DEFAULT_SYSFS_ROOT, SELF_PID, GlobalNumaDetector),
)

func SetGlobalTopologyCacheFromArgs() {
	GlobalNumaDetector = NewPlatformNumaDetector(GlobalSysfsRoot)
	GlobalTopologyCache = NewTopologyCacheFromBuilder(
		NewTopologyBuilder(GlobalProcfsRoot, GlobalSysfsRoot, GlobalPid, GlobalNumaDetector),
	)
}

func GetTopology() *HWTopoInfo {
	return GlobalTopologyCache.GetTopology()
}
