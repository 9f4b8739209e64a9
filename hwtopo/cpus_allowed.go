// The list of CPUs a process is allowed to run on, from /proc/PID/status.

package hwtopo

import (
	"github.com/prometheus/procfs"
)

var CpusAllowedLog = Log.WithField(
	LOGGER_COMPONENT_FIELD_NAME,
	"CpusAllowed",
)

// Return the sorted list of allowed CPUs for pid (SELF_PID for the current
// process). An empty list, returned when either the status file or the
// Cpus_allowed_list line are missing, should be interpreted as "all CPUs".
func ParsePermittedSet(procfsRoot string, pid int) []int {
	fs, err := procfs.NewFS(procfsRoot)
	if err != nil {
		CpusAllowedLog.Warn(err)
		return nil
	}
	var proc procfs.Proc
	if pid == SELF_PID {
		proc, err = fs.Self()
	} else {
		proc, err = fs.Proc(pid)
	}
	if err != nil {
		CpusAllowedLog.Debugf("pid %d: %s, assume all CPUs allowed", pid, err)
		return nil
	}
	status, err := proc.NewStatus()
	if err != nil {
		CpusAllowedLog.Debugf("pid %d: %s, assume all CPUs allowed", pid, err)
		return nil
	}
	permitted := make([]int, len(status.CpusAllowedList))
	for i, cpu := range status.CpusAllowedList {
		permitted[i] = int(cpu)
	}
	return permitted
}
