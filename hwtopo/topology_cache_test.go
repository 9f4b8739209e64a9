package hwtopo

import (
	"errors"
	"sync"
	"testing"

	"github.com/eparparita/procfs-hwtopo/testutils"
)

func TestTopologyCacheIdempotent(t *testing.T) {
	procfsRoot, sysfsRoot := writeTestFixture(t, &testutils.TopologyFixture{
		Processors:      testutils.RegularMachineProcessors(2, 4, 2),
		CpusAllowedList: testutils.StringPtr("0-15"),
	})
	cache := NewTopologyCacheFromBuilder(
		NewTopologyBuilder(procfsRoot, sysfsRoot, testutils.FIXTURE_PID, newFallbackNumaDetector()),
	)
	info1 := cache.GetTopology()
	info2 := cache.GetTopology()
	if info1 == nil {
		t.Fatal("nil topology")
	}
	if info1 != info2 {
		t.Fatalf("GetTopology(): want same *HWTopoInfo, got %p, %p", info1, info2)
	}
	if info1.Machine.ThreadCount != 16 {
		t.Errorf("ThreadCount: want 16, got %d", info1.Machine.ThreadCount)
	}
}

func TestTopologyCacheConcurrentBuild(t *testing.T) {
	buildCount := 0
	want := &HWTopoInfo{
		Machine: MachineTopologySummary{SocketCount: 1, ThreadCount: 1, CoreCount: 1, NumaNodeCount: 1},
		Threads: []ThreadTopologyEntry{{}},
	}
	cache := NewTopologyCache(func() (*HWTopoInfo, error) {
		buildCount++
		return want, nil
	})

	const numGoroutines = 32
	got := make([]*HWTopoInfo, numGoroutines)
	wg := &sync.WaitGroup{}
	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = cache.GetTopology()
		}(i)
	}
	wg.Wait()

	if buildCount != 1 {
		t.Errorf("build count: want 1, got %d", buildCount)
	}
	for i, info := range got {
		if info != want {
			t.Errorf("goroutine# %d: want %p, got %p", i, want, info)
		}
	}
}

func TestTopologyCacheErrorNotCached(t *testing.T) {
	buildCount := 0
	want := &HWTopoInfo{}
	cache := NewTopologyCache(func() (*HWTopoInfo, error) {
		buildCount++
		if buildCount == 1 {
			return nil, errors.New("transient")
		}
		return want, nil
	})
	if _, err := cache.Build(); err == nil {
		t.Fatal("want error on 1st build")
	}
	info, err := cache.Build()
	if err != nil {
		t.Fatal(err)
	}
	if info != want {
		t.Errorf("want %p, got %p", want, info)
	}
	if buildCount != 2 {
		t.Errorf("build count: want 2, got %d", buildCount)
	}
}

func TestTopologyCacheFatal(t *testing.T) {
	savedExitFunc := Log.ExitFunc
	t.Cleanup(func() { Log.ExitFunc = savedExitFunc })
	exitCode := -1
	Log.ExitFunc = func(code int) { exitCode = code }

	procfsRoot, sysfsRoot := writeTestFixture(t, &testutils.TopologyFixture{
		Processors: []testutils.FixtureProcessor{{Processor: 1}, {Processor: 1}},
	})
	cache := NewTopologyCacheFromBuilder(
		NewTopologyBuilder(procfsRoot, sysfsRoot, testutils.FIXTURE_PID, newFallbackNumaDetector()),
	)
	if info := cache.GetTopology(); info != nil {
		t.Errorf("want nil topology, got:\n%s", testutils.DumpToString(info))
	}
	if exitCode != 1 {
		t.Errorf("exit code: want 1, got %d", exitCode)
	}
}
