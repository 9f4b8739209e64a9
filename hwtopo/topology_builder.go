// Build the hardware topology.
//
// The raw records are sorted by (package, core, processor#) and those sharing
// a core with their predecessor are marked as SMT siblings. The records not
// allowed for the process are then removed and since that may change the
// adjacency, the survivors are sorted again, this time primary threads first,
// and the siblings are re-marked. Finally the packages and the NUMA nodes are
// renumbered densely, in increasing order of their OS ids.

package hwtopo

import (
	"sort"
)

var TopologyBuilderLog = Log.WithField(
	LOGGER_COMPONENT_FIELD_NAME,
	"TopologyBuilder",
)

func sortRawThreadRecords(records []*RawThreadRecord) {
	sort.Slice(records, func(i, j int) bool {
		return rawThreadRecordLess(records[i], records[j])
	})
}

// A record is a sibling iff its predecessor is on the same (package, core):
func markSiblingThreads(records []*RawThreadRecord) {
	for i, rec := range records {
		rec.IsSiblingThread = i > 0 &&
			records[i-1].PackageId == rec.PackageId &&
			records[i-1].CoreId == rec.CoreId
	}
}

// An empty permitted list means that all are permitted:
func markPermitted(records []*RawThreadRecord, permitted []int) {
	if len(permitted) == 0 {
		for _, rec := range records {
			rec.Permitted = true
		}
		return
	}
	permittedSet := make(map[int]bool, len(permitted))
	for _, cpu := range permitted {
		permittedSet[cpu] = true
	}
	for _, rec := range records {
		rec.Permitted = permittedSet[rec.LogicalId]
	}
}

func removeUnpermitted(records []*RawThreadRecord) []*RawThreadRecord {
	kept := records[:0]
	for _, rec := range records {
		if rec.Permitted {
			kept = append(kept, rec)
		}
	}
	return kept
}

// Sort, classify, filter and re-classify; the result is in canonical order.
// The records slice is reused.
func classifyThreads(records []*RawThreadRecord, permitted []int) []*RawThreadRecord {
	sortRawThreadRecords(records)
	markSiblingThreads(records)
	markPermitted(records, permitted)
	records = removeUnpermitted(records)
	sortRawThreadRecords(records)
	markSiblingThreads(records)
	return records
}

// Map each distinct value to its position in the sorted set of values:
func denseRanks(values []int) map[int]int {
	distinct := make([]int, 0, len(values))
	seen := make(map[int]bool)
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			distinct = append(distinct, v)
		}
	}
	sort.Ints(distinct)
	ranks := make(map[int]int, len(distinct))
	for rank, v := range distinct {
		ranks[v] = rank
	}
	return ranks
}

func summarizeThreads(records []*RawThreadRecord) MachineTopologySummary {
	type coreKey struct {
		packageId, coreId int
	}
	packages := make(map[int]bool)
	cores := make(map[coreKey]bool)
	numaNodes := make(map[int]bool)
	for _, rec := range records {
		packages[rec.PackageId] = true
		cores[coreKey{rec.PackageId, rec.CoreId}] = true
		numaNodes[rec.NumaNode] = true
	}
	return MachineTopologySummary{
		SocketCount:   len(packages),
		ThreadCount:   len(records),
		CoreCount:     len(cores),
		NumaNodeCount: len(numaNodes),
	}
}

// Renumber records already in canonical order:
func renumberThreads(records []*RawThreadRecord) *HWTopoInfo {
	packageIds := make([]int, len(records))
	numaNodes := make([]int, len(records))
	for i, rec := range records {
		packageIds[i] = rec.PackageId
		numaNodes[i] = rec.NumaNode
	}
	packageRank := denseRanks(packageIds)
	numaRank := denseRanks(numaNodes)

	info := &HWTopoInfo{
		Machine: summarizeThreads(records),
		Threads: make([]ThreadTopologyEntry, len(records)),
	}
	packageLeader := make(map[int]int)
	maxPackageRank := 0
	for i, rec := range records {
		leader, ok := packageLeader[rec.PackageId]
		if !ok {
			leader = i
			packageLeader[rec.PackageId] = i
		}
		rank := packageRank[rec.PackageId]
		if rank > maxPackageRank {
			maxPackageRank = rank
		}
		info.Threads[i] = ThreadTopologyEntry{
			ThreadIndex:              i,
			PackageLeaderThreadIndex: leader,
			PackageRank:              rank,
			NumaRank:                 numaRank[rec.NumaNode],
			MaxPackageRankSoFar:      maxPackageRank,
			OsHardwareContext:        rec.LogicalId,
			RawNumaNode:              rec.NumaNode,
		}
	}
	return info
}

// Build the topology from records w/ resolved NUMA nodes. The records slice
// is reordered and truncated in the process.
func BuildTopology(records []*RawThreadRecord, permitted []int) *HWTopoInfo {
	return renumberThreads(classifyThreads(records, permitted))
}

type TopologyBuilder struct {
	procfsRoot string
	sysfsRoot  string
	// The allowed CPUs are those of this PID:
	pid  int
	numa *NumaDetector
	// Whether to compare the processor# against the online CPUs, this makes
	// sense only for the real /proc:
	checkOnline bool
}

// If numa is nil then the platform detector is used.
func NewTopologyBuilder(procfsRoot, sysfsRoot string, pid int, numa *NumaDetector) *TopologyBuilder {
	if numa == nil {
		numa = NewPlatformNumaDetector(sysfsRoot)
	}
	return &TopologyBuilder{
		procfsRoot:  procfsRoot,
		sysfsRoot:   sysfsRoot,
		pid:         pid,
		numa:        numa,
		checkOnline: procfsRoot == DEFAULT_PROCFS_ROOT && sysfsRoot == DEFAULT_SYSFS_ROOT,
	}
}

func (b *TopologyBuilder) ParseThreads() ([]*RawThreadRecord, error) {
	records, err := ParseThreads(b.procfsRoot)
	if err != nil {
		return nil, err
	}
	FillMissingTopologyFromSysfs(records, b.sysfsRoot)
	for _, rec := range records {
		rec.NumaNode, err = b.numa.Resolve(rec)
		if err != nil {
			return nil, err
		}
	}
	if b.checkOnline {
		online := GetProcessorCounts().Online
		if online > 0 && online != len(records) {
			TopologyBuilderLog.Warnf(
				"%d processor(s) in %s/%s but %d online",
				len(records), b.procfsRoot, CPUINFO_FILE_NAME, online,
			)
		}
	}
	return records, nil
}

func (b *TopologyBuilder) Build() (*HWTopoInfo, error) {
	records, err := b.ParseThreads()
	if err != nil {
		return nil, err
	}
	info := BuildTopology(records, ParsePermittedSet(b.procfsRoot, b.pid))
	TopologyBuilderLog.Debugf(
		"sockets=%d, cores=%d, threads=%d, numa nodes=%d",
		info.Machine.SocketCount, info.Machine.CoreCount,
		info.Machine.ThreadCount, info.Machine.NumaNodeCount,
	)
	return info, nil
}
