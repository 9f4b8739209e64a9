// Topology in Prometheus exposition format.

package hwtopo

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// All metrics will have the following labels:
	HOSTNAME_LABEL_NAME     = "hostname"
	JOB_LABEL_NAME          = "job"
	DEFAULT_JOB_LABEL_VALUE = "hwtopo"

	HWTOPO_SOCKETS_METRIC_NAME     = "hwtopo_sockets"
	HWTOPO_CORES_METRIC_NAME       = "hwtopo_cores"
	HWTOPO_THREADS_METRIC_NAME     = "hwtopo_threads"
	HWTOPO_NUMA_NODES_METRIC_NAME  = "hwtopo_numa_nodes"
	HWTOPO_THREAD_INFO_METRIC_NAME = "hwtopo_thread_info"

	HWTOPO_THREAD_LABEL_NAME    = "thread"
	HWTOPO_CPU_LABEL_NAME       = "cpu"
	HWTOPO_PACKAGE_LABEL_NAME   = "package"
	HWTOPO_NUMA_LABEL_NAME      = "numa"
	HWTOPO_NUMA_NODE_LABEL_NAME = "numa_node"
	HWTOPO_LEADER_LABEL_NAME    = "leader"
)

var HostnameArg = flag.String(
	"metrics-hostname",
	"",
	FormatFlagUsage(fmt.Sprintf(`
	Set the value to use for %s label, if different than OS's hostname.
	`, HOSTNAME_LABEL_NAME)),
)

var UseShortHostnameArg = flag.Bool(
	"metrics-use-short-hostname",
	false,
	`Strip the domain from OS's hostname.`,
)

var MetricsJobLabelValueArgs = flag.String(
	"metrics-job",
	DEFAULT_JOB_LABEL_VALUE,
	FormatFlagUsage(fmt.Sprintf(`
	Set the value to use for %s label, common to all metrics.
	`, JOB_LABEL_NAME)),
)

var GlobalMetricsHostname string
var GlobalMetricsJob = DEFAULT_JOB_LABEL_VALUE

func SetMetricsHostnameFromArgs() error {
	if *HostnameArg != "" {
		GlobalMetricsHostname = *HostnameArg
		return nil
	}
	hostname, err := os.Hostname()
	if err != nil {
		return err
	}
	if *UseShortHostnameArg {
		i := strings.Index(hostname, ".")
		if i > 0 {
			hostname = hostname[:i]
		}
	}
	GlobalMetricsHostname = hostname
	return nil
}

func SetMetricsLabelsFromArgs() error {
	err := SetMetricsHostnameFromArgs()
	if err != nil {
		return err
	}
	GlobalMetricsJob = *MetricsJobLabelValueArgs
	return nil
}

// Sanitize label values as per
// https://github.com/Showmax/prometheus-docs/blob/master/content/docs/instrumenting/exposition_formats.md
func SanitizeLabelValue(v string) string {
	qVal := strconv.Quote(v)
	// Remove enclosing `"':
	return qVal[1 : len(qVal)-1]
}

type TopologyMetricsContext struct {
	// Precomputed formats for generating the metrics:
	machineMetricFmt    string
	threadInfoMetricFmt string
	// Useful for testing, in lieu of mocks:
	timeNow func() time.Time
}

func NewTopologyMetricsContext(
	hostname string,
	job string,
	timeNow func() time.Time,
) *TopologyMetricsContext {
	if hostname == "" {
		hostname = GlobalMetricsHostname
	}
	if job == "" {
		job = GlobalMetricsJob
	}
	if timeNow == nil {
		timeNow = time.Now
	}
	hostname, job = SanitizeLabelValue(hostname), SanitizeLabelValue(job)
	// The label values end up in format strings:
	hostname = strings.ReplaceAll(hostname, "%", "%%")
	job = strings.ReplaceAll(job, "%", "%%")
	return &TopologyMetricsContext{
		machineMetricFmt: fmt.Sprintf(
			`%%s{%s="%s",%s="%s"} %%d %%s`+"\n",
			HOSTNAME_LABEL_NAME, hostname,
			JOB_LABEL_NAME, job,
		),
		threadInfoMetricFmt: fmt.Sprintf(
			`%s{%s="%s",%s="%s",%s="%%d",%s="%%d",%s="%%d",%s="%%d",%s="%%d",%s="%%d"} 1 %%s`+"\n",
			HWTOPO_THREAD_INFO_METRIC_NAME,
			HOSTNAME_LABEL_NAME, hostname,
			JOB_LABEL_NAME, job,
			HWTOPO_THREAD_LABEL_NAME,
			HWTOPO_CPU_LABEL_NAME,
			HWTOPO_PACKAGE_LABEL_NAME,
			HWTOPO_NUMA_LABEL_NAME,
			HWTOPO_NUMA_NODE_LABEL_NAME,
			HWTOPO_LEADER_LABEL_NAME,
		),
		timeNow: timeNow,
	}
}

// Write the metrics for info into buf, return the number of metrics:
func (ctx *TopologyMetricsContext) GenerateMetrics(info *HWTopoInfo, buf *bytes.Buffer) int {
	promTs := strconv.FormatInt(ctx.timeNow().UnixMilli(), 10)
	metricCount := 0

	machine := info.Machine
	for _, m := range []struct {
		name  string
		value int
	}{
		{HWTOPO_SOCKETS_METRIC_NAME, machine.SocketCount},
		{HWTOPO_CORES_METRIC_NAME, machine.CoreCount},
		{HWTOPO_THREADS_METRIC_NAME, machine.ThreadCount},
		{HWTOPO_NUMA_NODES_METRIC_NAME, machine.NumaNodeCount},
	} {
		fmt.Fprintf(buf, ctx.machineMetricFmt, m.name, m.value, promTs)
		metricCount += 1
	}

	for _, thread := range info.Threads {
		fmt.Fprintf(
			buf, ctx.threadInfoMetricFmt,
			thread.ThreadIndex,
			thread.OsHardwareContext,
			thread.PackageRank,
			thread.NumaRank,
			thread.RawNumaNode,
			thread.PackageLeaderThreadIndex,
			promTs,
		)
		metricCount += 1
	}
	return metricCount
}
