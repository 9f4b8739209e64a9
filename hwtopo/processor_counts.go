// Processor counts as reported by the OS, for diagnostics.

package hwtopo

import (
	"runtime"

	"github.com/tklauser/go-sysconf"
	"github.com/tklauser/numcpus"
)

var ProcessorCountsLog = Log.WithField(
	LOGGER_COMPONENT_FIELD_NAME,
	"ProcessorCounts",
)

type ProcessorCounts struct {
	// sysconf(_SC_NPROCESSORS_CONF):
	Configured int
	// /sys/devices/system/cpu/online:
	Online int
	// Based on the affinity of the process:
	Available int
}

func GetProcessorCounts() ProcessorCounts {
	counts := ProcessorCounts{
		Available: CountAvailableCPUs(),
	}
	configured, err := sysconf.Sysconf(sysconf.SC_NPROCESSORS_CONF)
	if err != nil {
		ProcessorCountsLog.Warnf("sysconf(SC_NPROCESSORS_CONF): %s, will use runtime.NumCPU()", err)
		configured = int64(runtime.NumCPU())
	}
	counts.Configured = int(configured)
	counts.Online, err = numcpus.GetOnline()
	if err != nil {
		ProcessorCountsLog.Warnf("numcpus.GetOnline(): %s", err)
		counts.Online = -1
	}
	return counts
}
