//go:build linux

package hwtopo

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eparparita/procfs-hwtopo/testutils"
)

func TestFillMissingTopologyFromSysfs(t *testing.T) {
	hook := newTestLogHook(t)
	processors := []testutils.FixtureProcessor{
		{Processor: 0, OmitIds: true},
		{Processor: 1, OmitIds: true},
		{Processor: 2, OmitIds: true},
		{Processor: 3, PhysicalId: 1, CoreId: 9},
		// No sysfs entry:
		{Processor: 4, OmitIds: true},
	}
	procfsRoot, sysfsRoot := writeTestFixture(t, &testutils.TopologyFixture{
		Processors: processors,
		SysfsCpus: []testutils.FixtureSysfsCpu{
			{Cpu: 0, PhysicalPackageId: 0, CoreId: 0},
			{Cpu: 1, PhysicalPackageId: 0, CoreId: 1},
			{Cpu: 2, PhysicalPackageId: 1, CoreId: 0},
			// Should not override cpuinfo:
			{Cpu: 3, PhysicalPackageId: 5, CoreId: 5},
		},
	})
	records, err := ParseThreads(procfsRoot)
	if err != nil {
		t.Fatal(err)
	}
	FillMissingTopologyFromSysfs(records, sysfsRoot)

	type ids struct{ PackageId, CoreId int }
	wantIds := []ids{{0, 0}, {0, 1}, {1, 0}, {1, 9}, {0, 0}}
	gotIds := make([]ids, len(records))
	for i, rec := range records {
		gotIds[i] = ids{rec.PackageId, rec.CoreId}
	}
	if diff := cmp.Diff(wantIds, gotIds); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
	if got := countWarnings(hook, "1 processor(s) w/o package/core id"); got != 1 {
		t.Errorf("warning count: want 1, got %d", got)
	}
}

func TestFillMissingTopologyFromSysfsNoop(t *testing.T) {
	hook := newTestLogHook(t)
	records := []*RawThreadRecord{
		{LogicalId: 0, PackageId: 1, CoreId: 2, hasPackageId: true, hasCoreId: true},
	}
	FillMissingTopologyFromSysfs(records, "/no/such/sysfs/root")
	if records[0].PackageId != 1 || records[0].CoreId != 2 {
		t.Errorf("record modified: %+v", records[0])
	}
	if got := countWarnings(hook, ""); got != 0 {
		t.Errorf("warning count: want 0, got %d", got)
	}
}
