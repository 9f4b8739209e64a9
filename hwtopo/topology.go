// Hardware topology data model.
//
// The topology is discovered once from /proc/cpuinfo, filtered by the CPUs
// the process is allowed to run on and renumbered into dense, 0-based ranks.
// The resulting HWTopoInfo is what a parallel runtime uses to place its
// workers; the threads are listed in canonical order, primary threads first
// (by package, core), followed by their SMT siblings.

package hwtopo

// One record per logical processor, as listed by the OS:
type RawThreadRecord struct {
	// The OS processor#, the one used for affinity:
	LogicalId int
	// physical id:
	PackageId int
	// siblings, i.e. the number of logical processors in the package:
	SiblingCount int
	// core id, unique within the package:
	CoreId int
	// cpu cores:
	CoresPerPackage int
	// Resolved NUMA node:
	NumaNode int
	// Whether the process is allowed to use this processor:
	Permitted bool
	// Whether this is a secondary hardware thread of a core seen earlier in
	// sort order:
	IsSiblingThread bool
	// Whether physical id and core id were present in cpuinfo:
	hasPackageId bool
	hasCoreId    bool
}

type MachineTopologySummary struct {
	SocketCount   int
	ThreadCount   int
	CoreCount     int
	NumaNodeCount int
}

type ThreadTopologyEntry struct {
	// Position in canonical order, this is the thread# used by the runtime:
	ThreadIndex int
	// The ThreadIndex of the 1st thread in the same package:
	PackageLeaderThreadIndex int
	// Dense package#:
	PackageRank int
	// Dense NUMA node#:
	NumaRank int
	// Running max of PackageRank up to and including this entry:
	MaxPackageRankSoFar int
	// The OS processor#, needed for binding:
	OsHardwareContext int
	RawNumaNode       int
}

// HWTopoInfo is shared by all callers of the cache and it should be treated as
// read-only.
type HWTopoInfo struct {
	Machine MachineTopologySummary
	Threads []ThreadTopologyEntry
}

// Canonical order: (IsSiblingThread, PackageId, CoreId, LogicalId).
func rawThreadRecordLess(a, b *RawThreadRecord) bool {
	if a.IsSiblingThread != b.IsSiblingThread {
		return !a.IsSiblingThread
	}
	if a.PackageId != b.PackageId {
		return a.PackageId < b.PackageId
	}
	if a.CoreId != b.CoreId {
		return a.CoreId < b.CoreId
	}
	return a.LogicalId < b.LogicalId
}
