// Common definitions for hwtopo tests.

package hwtopo

import (
	"path"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/eparparita/procfs-hwtopo/testutils"
)

const (
	HWTOPO_TOP_DIR = ".."
)

var TestdataTestCasesDir = path.Join(HWTOPO_TOP_DIR, "testdata/testcases")
var TestHostname = "test-host"
var TestJob = "test-hwtopo"

// Capture the log entries for the duration of the test:
func newTestLogHook(t *testing.T) *test.Hook {
	hook := test.NewLocal(Log)
	t.Cleanup(func() {
		Log.ReplaceHooks(make(logrus.LevelHooks))
	})
	return hook
}

// Count the warnings containing msg:
func countWarnings(hook *test.Hook, msg string) int {
	count := 0
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && strings.Contains(entry.Message, msg) {
			count++
		}
	}
	return count
}

// Write the fixture into a test temp dir, return procfs and sysfs roots:
func writeTestFixture(t *testing.T, fixture *testutils.TopologyFixture) (string, string) {
	procfsRoot, sysfsRoot, err := fixture.Write(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return procfsRoot, sysfsRoot
}

// A detector that always falls back to the package:
func newFallbackNumaDetector() *NumaDetector {
	return NewNumaDetector(true, func() (NumaCapability, error) {
		return &testNumaCapability{available: -1}, nil
	})
}
