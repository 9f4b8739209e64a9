package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/eparparita/procfs-hwtopo/hwtopo"
)

const (
	FORMAT_TEXT       = "text"
	FORMAT_JSON       = "json"
	FORMAT_PROMETHEUS = "prometheus"

	NO_BIND_THREAD = -1
)

var OutputFormats = []string{FORMAT_TEXT, FORMAT_JSON, FORMAT_PROMETHEUS}

var FormatArg = flag.String(
	"format",
	FORMAT_TEXT,
	hwtopo.FormatFlagUsage(fmt.Sprintf(`
	Output format, one of: %s.
	`, strings.Join(OutputFormats, ", "))),
)

var BindThreadArg = flag.Int(
	"bind-thread",
	NO_BIND_THREAD,
	hwtopo.FormatFlagUsage(`
	If >= 0, bind to the hardware context of this thread# and report the
	resulting affinity.
	`),
)

var MainLog = hwtopo.Log.WithField(
	hwtopo.LOGGER_COMPONENT_FIELD_NAME,
	"Main",
)

type topologyReport struct {
	ProcessorCounts hwtopo.ProcessorCounts
	NumaAvailable   bool
	Topology        *hwtopo.HWTopoInfo
}

func printText(report *topologyReport) {
	counts, machine := report.ProcessorCounts, report.Topology.Machine
	fmt.Printf(
		"Processors: configured=%d, online=%d, available=%d\n",
		counts.Configured, counts.Online, counts.Available,
	)
	fmt.Printf(
		"Machine: sockets=%d, cores=%d, threads=%d, numa nodes=%d (numa available: %v)\n",
		machine.SocketCount, machine.CoreCount, machine.ThreadCount, machine.NumaNodeCount,
		report.NumaAvailable,
	)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "THREAD\tCPU\tPACKAGE\tLEADER\tMAX_PACKAGE\tNUMA\tNUMA_NODE\t")
	for _, thread := range report.Topology.Threads {
		fmt.Fprintf(
			w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t\n",
			thread.ThreadIndex,
			thread.OsHardwareContext,
			thread.PackageRank,
			thread.PackageLeaderThreadIndex,
			thread.MaxPackageRankSoFar,
			thread.NumaRank,
			thread.RawNumaNode,
		)
	}
	w.Flush()
}

func printJson(report *topologyReport) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func printPrometheus(report *topologyReport) error {
	buf := &bytes.Buffer{}
	hwtopo.NewTopologyMetricsContext("", "", nil).GenerateMetrics(report.Topology, buf)
	_, err := os.Stdout.Write(buf.Bytes())
	return err
}

// Bind to the hardware context of thread# and log the resulting affinity:
func bindThread(info *hwtopo.HWTopoInfo, thread int) error {
	if thread < 0 || thread >= len(info.Threads) {
		return fmt.Errorf("bind thread# %d: out of range [0, %d)", thread, len(info.Threads))
	}
	osHardwareContext := info.Threads[thread].OsHardwareContext
	if !hwtopo.BindSelf(osHardwareContext) {
		return fmt.Errorf("bind thread# %d: failed to bind to cpu %d", thread, osHardwareContext)
	}
	cpus, err := hwtopo.GetSelfAffinity()
	if err != nil {
		return err
	}
	MainLog.Infof("thread# %d bound to cpu %d, affinity: %v", thread, osHardwareContext, cpus)
	return nil
}

func main() {
	flag.Parse()

	err := hwtopo.SetLoggerFromArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	err = hwtopo.SetTopologySourceFromArgs()
	if err != nil {
		MainLog.Fatal(err)
		return
	}
	err = hwtopo.SetMetricsLabelsFromArgs()
	if err != nil {
		MainLog.Fatal(err)
		return
	}
	hwtopo.SetGlobalTopologyCacheFromArgs()

	report := &topologyReport{
		ProcessorCounts: hwtopo.GetProcessorCounts(),
		Topology:        hwtopo.GetTopology(),
	}
	report.NumaAvailable = hwtopo.GlobalNumaDetector.IsAvailable()

	if *BindThreadArg != NO_BIND_THREAD {
		err = bindThread(report.Topology, *BindThreadArg)
		if err != nil {
			MainLog.Fatal(err)
			return
		}
	}

	switch *FormatArg {
	case FORMAT_TEXT:
		printText(report)
	case FORMAT_JSON:
		err = printJson(report)
	case FORMAT_PROMETHEUS:
		err = printPrometheus(report)
	default:
		err = fmt.Errorf("%q: invalid format, not one of: %s", *FormatArg, strings.Join(OutputFormats, ", "))
	}
	if err != nil {
		MainLog.Fatal(err)
		return
	}
}
