//go:build !nonuma

package hwtopo

const NUMA_SUPPORT_CONFIGURED = true
