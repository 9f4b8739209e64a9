// /proc/cpuinfo parser.
//
// The file is a sequence of blocks, one per logical processor, each block made
// of "attribute<TAB>: value" lines. A "processor" line starts a new block and
// the attributes of interest that follow update the current record.

package hwtopo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	CPUINFO_FILE_NAME = "cpuinfo"

	CPUINFO_PROCESSOR_ATTR   = "processor"
	CPUINFO_PHYSICAL_ID_ATTR = "physical id"
	CPUINFO_SIBLINGS_ATTR    = "siblings"
	CPUINFO_CORE_ID_ATTR     = "core id"
	CPUINFO_CPU_CORES_ATTR   = "cpu cores"
)

var CpuinfoLog = Log.WithField(
	LOGGER_COMPONENT_FIELD_NAME,
	"Cpuinfo",
)

// Split "attribute : value" lines; return ok=false if there is no separator.
func splitCpuinfoLine(line string) (attr string, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+1:]), true
}

// Parse cpuinfo under procfsRoot into one record per logical processor, in
// the order listed by the OS. Processor numbers must be strictly increasing.
func ParseThreads(procfsRoot string) ([]*RawThreadRecord, error) {
	cpuinfoPath := filepath.Join(procfsRoot, CPUINFO_FILE_NAME)
	f, err := os.Open(cpuinfoPath)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s: %w", cpuinfoPath, err)
	}
	defer f.Close()

	records := make([]*RawThreadRecord, 0)
	var cur *RawThreadRecord
	lineNum := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNum++
		attr, value, ok := splitCpuinfoLine(scanner.Text())
		if !ok {
			continue
		}
		switch attr {
		case CPUINFO_PROCESSOR_ATTR, CPUINFO_PHYSICAL_ID_ATTR, CPUINFO_SIBLINGS_ATTR,
			CPUINFO_CORE_ID_ATTR, CPUINFO_CPU_CORES_ATTR:
		default:
			continue
		}
		num, err := strconv.Atoi(value)
		if err != nil {
			CpuinfoLog.Debugf("%s#%d: %q: %s, ignored", cpuinfoPath, lineNum, attr, err)
			continue
		}
		if attr == CPUINFO_PROCESSOR_ATTR {
			if cur != nil && num <= cur.LogicalId {
				return nil, fmt.Errorf(
					"%s#%d: processor %d not greater than previous %d",
					cpuinfoPath, lineNum, num, cur.LogicalId,
				)
			}
			cur = &RawThreadRecord{LogicalId: num}
			records = append(records, cur)
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf(
				"%s#%d: %q before any %q line",
				cpuinfoPath, lineNum, attr, CPUINFO_PROCESSOR_ATTR,
			)
		}
		switch attr {
		case CPUINFO_PHYSICAL_ID_ATTR:
			cur.PackageId = num
			cur.hasPackageId = true
		case CPUINFO_SIBLINGS_ATTR:
			cur.SiblingCount = num
		case CPUINFO_CORE_ID_ATTR:
			cur.CoreId = num
			cur.hasCoreId = true
		case CPUINFO_CPU_CORES_ATTR:
			cur.CoresPerPackage = num
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", cpuinfoPath, err)
	}
	return records, nil
}
