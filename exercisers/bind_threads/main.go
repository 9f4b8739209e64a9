// Bind one goroutine per topology thread and verify the affinity, in a loop.

package main

import (
	"flag"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eparparita/procfs-hwtopo/hwtopo"
)

var RoundIntervalSeconds = flag.Float64(
	"round-interval",
	1,
	"How often to run a bind round, in seconds",
)
var NumRounds = flag.Int(
	"num-rounds",
	1,
	"How many rounds to run, use 0 to run forever",
)
var SpinDuration = flag.Duration(
	"spin",
	10*time.Millisecond,
	"How long each bound goroutine should spin before it checks its affinity",
)

type bindResult struct {
	thread   int
	cpu      int
	bound    bool
	affinity []int
	onCpu    bool
}

// Bind, spin and check that the affinity is exactly the target CPU:
func bindAndCheck(thread hwtopo.ThreadTopologyEntry, spin time.Duration) *bindResult {
	result := &bindResult{
		thread: thread.ThreadIndex,
		cpu:    thread.OsHardwareContext,
	}
	result.bound = hwtopo.BindSelf(thread.OsHardwareContext)
	if !result.bound {
		return result
	}
	deadline := time.Now().Add(spin)
	for time.Now().Before(deadline) {
	}
	affinity, err := hwtopo.GetSelfAffinity()
	if err != nil {
		hwtopo.Log.Warnf("thread# %d: %s", thread.ThreadIndex, err)
		return result
	}
	result.affinity = affinity
	result.onCpu = len(affinity) == 1 && affinity[0] == thread.OsHardwareContext
	return result
}

func runRound(info *hwtopo.HWTopoInfo, spin time.Duration) (int, int) {
	results := make([]*bindResult, len(info.Threads))
	wg := &sync.WaitGroup{}
	for i, thread := range info.Threads {
		wg.Add(1)
		go func(i int, thread hwtopo.ThreadTopologyEntry) {
			defer wg.Done()
			results[i] = bindAndCheck(thread, spin)
		}(i, thread)
	}
	wg.Wait()

	numBound, numOnCpu := 0, 0
	debugEnabled := hwtopo.Log.IsLevelEnabled(logrus.DebugLevel)
	for _, result := range results {
		if result.bound {
			numBound += 1
		}
		if result.onCpu {
			numOnCpu += 1
		} else if result.bound {
			hwtopo.Log.Warnf(
				"thread# %d: bound to cpu %d but affinity is %v",
				result.thread, result.cpu, result.affinity,
			)
		}
		if debugEnabled {
			hwtopo.Log.Debugf(
				"thread# %d: cpu: %d, bound: %v, affinity: %v",
				result.thread, result.cpu, result.bound, result.affinity,
			)
		}
	}
	return numBound, numOnCpu
}

func main() {
	flag.Parse()

	err := hwtopo.SetLoggerFromArgs()
	if err != nil {
		hwtopo.Log.Fatal(err)
		return
	}
	err = hwtopo.SetTopologySourceFromArgs()
	if err != nil {
		hwtopo.Log.Fatal(err)
		return
	}
	hwtopo.SetGlobalTopologyCacheFromArgs()

	info := hwtopo.GetTopology()
	hwtopo.Log.Infof(
		"sockets: %d, cores: %d, threads: %d, numa nodes: %d, round interval: %.03f sec, rounds: %d, spin: %s",
		info.Machine.SocketCount,
		info.Machine.CoreCount,
		info.Machine.ThreadCount,
		info.Machine.NumaNodeCount,
		*RoundIntervalSeconds,
		*NumRounds,
		*SpinDuration,
	)

	roundInterval := time.Duration(*RoundIntervalSeconds * float64(time.Second))
	nextRound := time.Now()
	for round := 1; *NumRounds <= 0 || round <= *NumRounds; round++ {
		pause := time.Until(nextRound)
		if pause > 0 {
			time.Sleep(pause)
		}
		nextRound = nextRound.Add(roundInterval)

		start := time.Now()
		numBound, numOnCpu := runRound(info, *SpinDuration)
		hwtopo.Log.Infof(
			"round# %d: %d/%d thread(s) bound, %d on target cpu, in %s",
			round, numBound, len(info.Threads), numOnCpu, time.Since(start),
		)
	}
}
