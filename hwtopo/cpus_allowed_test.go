package hwtopo

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/eparparita/procfs-hwtopo/testutils"
)

type CpusAllowedTestCase struct {
	name            string
	noStatus        bool
	cpusAllowedList *string
	pid             int
	wantPermitted   []int
}

func testParsePermittedSet(t *testing.T, tc *CpusAllowedTestCase) {
	procfsRoot, _ := writeTestFixture(t, &testutils.TopologyFixture{
		Processors:      testutils.RegularMachineProcessors(1, 4, 2),
		NoStatus:        tc.noStatus,
		CpusAllowedList: tc.cpusAllowedList,
	})
	gotPermitted := ParsePermittedSet(procfsRoot, tc.pid)
	if len(tc.wantPermitted) == 0 {
		if len(gotPermitted) != 0 {
			t.Fatalf("want empty, got %v", gotPermitted)
		}
		return
	}
	if diff := cmp.Diff(tc.wantPermitted, gotPermitted); diff != "" {
		t.Errorf("permitted mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePermittedSet(t *testing.T) {
	for _, tc := range []*CpusAllowedTestCase{
		{
			name:            "self_range",
			cpusAllowedList: testutils.StringPtr("0-7"),
			pid:             SELF_PID,
			wantPermitted:   []int{0, 1, 2, 3, 4, 5, 6, 7},
		},
		{
			name:            "pid_mixed",
			cpusAllowedList: testutils.StringPtr("0-1,4,6-7"),
			pid:             testutils.FIXTURE_PID,
			wantPermitted:   []int{0, 1, 4, 6, 7},
		},
		{
			name:            "no_line",
			cpusAllowedList: nil,
			pid:             SELF_PID,
		},
		{
			name:     "no_status",
			noStatus: true,
			pid:      SELF_PID,
		},
		{
			name:            "no_such_pid",
			cpusAllowedList: testutils.StringPtr("0-7"),
			pid:             testutils.FIXTURE_PID + 1,
		},
	} {
		t.Run(tc.name, func(t *testing.T) { testParsePermittedSet(t, tc) })
	}
}

func TestParsePermittedSetNoProcfs(t *testing.T) {
	gotPermitted := ParsePermittedSet("/no/such/procfs/root", SELF_PID)
	if len(gotPermitted) != 0 {
		t.Fatalf("want empty, got %v", gotPermitted)
	}
}
