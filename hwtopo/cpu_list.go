// Parse compact CPU lists, such as "0-3,8,10-11".

package hwtopo

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Return the sorted, de-duplicated list of CPUs. An empty (or all blanks)
// list is valid and it yields an empty result.
func ParseCPUList(cpuList string) ([]int, error) {
	cpus := make([]int, 0)
	cpuList = strings.TrimSpace(cpuList)
	if cpuList == "" {
		return cpus, nil
	}
	seen := make(map[int]bool)
	for _, part := range strings.Split(cpuList, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		first, last := part, part
		if i := strings.IndexByte(part, '-'); i >= 0 {
			first, last = part[:i], part[i+1:]
		}
		start, err := strconv.Atoi(first)
		if err != nil {
			return nil, fmt.Errorf("invalid CPU list %q: %w", cpuList, err)
		}
		end, err := strconv.Atoi(last)
		if err != nil {
			return nil, fmt.Errorf("invalid CPU list %q: %w", cpuList, err)
		}
		if start < 0 || end < start {
			return nil, fmt.Errorf("invalid CPU list %q: bad range %q", cpuList, part)
		}
		for cpu := start; cpu <= end; cpu++ {
			if !seen[cpu] {
				seen[cpu] = true
				cpus = append(cpus, cpu)
			}
		}
	}
	sort.Ints(cpus)
	return cpus, nil
}
