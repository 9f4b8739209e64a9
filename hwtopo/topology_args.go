// Command line arguments for topology discovery.

package hwtopo

import (
	"flag"

	"github.com/prometheus/procfs"
)

const (
	DEFAULT_PROCFS_ROOT = "/proc"
	DEFAULT_SYSFS_ROOT  = "/sys"
	// Use /proc/self for the allowed CPU list:
	SELF_PID = 0
)

var ProcfsRootArg = flag.String(
	"procfs-root",
	DEFAULT_PROCFS_ROOT,
	`Procfs root`,
)

var SysfsRootArg = flag.String(
	"sysfs-root",
	DEFAULT_SYSFS_ROOT,
	`Sysfs root`,
)

var PidArg = flag.Int(
	"pid",
	SELF_PID,
	FormatFlagUsage(`
	Filter the topology by the CPUs allowed for this PID, use 0 for the
	current process.
	`),
)

var GlobalProcfsRoot = DEFAULT_PROCFS_ROOT
var GlobalSysfsRoot = DEFAULT_SYSFS_ROOT
var GlobalPid = SELF_PID

func SetTopologySourceFromArgs() error {
	_, err := procfs.NewFS(*ProcfsRootArg)
	if err != nil {
		return err
	}
	GlobalProcfsRoot = *ProcfsRootArg
	GlobalSysfsRoot = *SysfsRootArg
	GlobalPid = *PidArg
	return nil
}
