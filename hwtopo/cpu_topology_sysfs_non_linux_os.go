//go:build !linux

package hwtopo

func FillMissingTopologyFromSysfs(records []*RawThreadRecord, sysfsRoot string) {}
