package hwtopo

import (
	"errors"
	"sync"
	"testing"
)

type testNumaCapability struct {
	available       int
	configuredNodes int
	// cpu# -> node#, missing entries will return -1:
	cpuNode map[int]int
}

func (c *testNumaCapability) Available() int {
	return c.available
}

func (c *testNumaCapability) ConfiguredNodeCount() int {
	return c.configuredNodes
}

func (c *testNumaCapability) NodeOfProcessor(cpu int) int {
	node, ok := c.cpuNode[cpu]
	if !ok {
		return -1
	}
	return node
}

type NumaDetectorTestCase struct {
	name         string
	configured   bool
	capability   NumaCapability
	acquireErr   error
	wantFallback bool
	wantWarning  string
}

func testNumaDetector(t *testing.T, tc *NumaDetectorTestCase) {
	hook := newTestLogHook(t)
	acquireCount := 0
	detector := NewNumaDetector(tc.configured, func() (NumaCapability, error) {
		acquireCount++
		return tc.capability, tc.acquireErr
	})

	records := []*RawThreadRecord{
		{LogicalId: 0, PackageId: 0},
		{LogicalId: 1, PackageId: 1},
		{LogicalId: 2, PackageId: 0},
		{LogicalId: 3, PackageId: 1},
	}
	for _, rec := range records {
		node, err := detector.Resolve(rec)
		if err != nil {
			t.Fatal(err)
		}
		wantNode := rec.PackageId
		if !tc.wantFallback {
			wantNode = tc.capability.NodeOfProcessor(rec.LogicalId)
		}
		if node != wantNode {
			t.Errorf("Resolve(LogicalId=%d): want %d, got %d", rec.LogicalId, wantNode, node)
		}
	}

	if detector.IsAvailable() == tc.wantFallback {
		t.Errorf("IsAvailable(): want %v, got %v", !tc.wantFallback, detector.IsAvailable())
	}
	wantAcquireCount := 1
	if !tc.configured {
		wantAcquireCount = 0
	}
	if acquireCount != wantAcquireCount {
		t.Errorf("acquire count: want %d, got %d", wantAcquireCount, acquireCount)
	}
	wantWarningCount := 0
	if tc.wantWarning != "" {
		wantWarningCount = 1
	}
	if got := countWarnings(hook, tc.wantWarning); tc.wantWarning != "" && got != wantWarningCount {
		t.Errorf("warning %q count: want %d, got %d", tc.wantWarning, wantWarningCount, got)
	}
	if tc.wantWarning == "" {
		if got := countWarnings(hook, ""); got != 0 {
			t.Errorf("warning count: want 0, got %d", got)
		}
	}
}

func TestNumaDetector(t *testing.T) {
	twoNodes := map[int]int{0: 0, 1: 1, 2: 1, 3: 0}
	for _, tc := range []*NumaDetectorTestCase{
		{
			name:       "available",
			configured: true,
			capability: &testNumaCapability{
				available:       0,
				configuredNodes: 2,
				cpuNode:         twoNodes,
			},
		},
		{
			name:       "not_available",
			configured: true,
			capability: &testNumaCapability{
				available:       -1,
				configuredNodes: 2,
				cpuNode:         twoNodes,
			},
			wantFallback: true,
			wantWarning:  NUMA_NOT_PRESENT_WARNING,
		},
		{
			name:       "no_configured_nodes",
			configured: true,
			capability: &testNumaCapability{
				available:       0,
				configuredNodes: 0,
			},
			wantFallback: true,
			wantWarning:  NUMA_NOT_PRESENT_WARNING,
		},
		{
			name:         "acquire_error",
			configured:   true,
			acquireErr:   errors.New("no libnuma"),
			wantFallback: true,
			wantWarning:  NUMA_NOT_PRESENT_WARNING,
		},
		{
			name:         "acquire_nil",
			configured:   true,
			wantFallback: true,
			wantWarning:  NUMA_NOT_PRESENT_WARNING,
		},
		{
			name:       "not_configured",
			configured: false,
			capability: &testNumaCapability{
				available:       0,
				configuredNodes: 2,
				cpuNode:         twoNodes,
			},
			wantFallback: true,
			wantWarning:  NUMA_NOT_CONFIGURED_WARNING,
		},
	} {
		t.Run(tc.name, func(t *testing.T) { testNumaDetector(t, tc) })
	}
}

func TestNumaDetectorNodeOfProcessorError(t *testing.T) {
	detector := NewNumaDetector(true, func() (NumaCapability, error) {
		return &testNumaCapability{
			available:       0,
			configuredNodes: 1,
			cpuNode:         map[int]int{0: 0},
		}, nil
	})
	if _, err := detector.Resolve(&RawThreadRecord{LogicalId: 0}); err != nil {
		t.Fatal(err)
	}
	_, err := detector.Resolve(&RawThreadRecord{LogicalId: 1})
	if err == nil {
		t.Fatal("want error for processor w/o NUMA node")
	}
	t.Log(err)
}

func TestNumaDetectorConcurrentFirstUse(t *testing.T) {
	hook := newTestLogHook(t)
	acquireCount := 0
	detector := NewNumaDetector(true, func() (NumaCapability, error) {
		acquireCount++
		return nil, errors.New("unavailable")
	})
	wg := &sync.WaitGroup{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			node, err := detector.Resolve(&RawThreadRecord{LogicalId: i, PackageId: i % 2})
			if err != nil {
				t.Error(err)
			}
			if node != i%2 {
				t.Errorf("Resolve(LogicalId=%d): want %d, got %d", i, i%2, node)
			}
		}(i)
	}
	wg.Wait()
	if acquireCount != 1 {
		t.Errorf("acquire count: want 1, got %d", acquireCount)
	}
	if got := countWarnings(hook, NUMA_NOT_PRESENT_WARNING); got != 1 {
		t.Errorf("warning count: want 1, got %d", got)
	}
}
