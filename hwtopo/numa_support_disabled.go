// Build w/ -tags nonuma to always use the package as NUMA node.

//go:build nonuma

package hwtopo

const NUMA_SUPPORT_CONFIGURED = false
