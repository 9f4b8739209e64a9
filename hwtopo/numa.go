// NUMA node resolution.
//
// The NUMA node of a logical processor is obtained from an optional
// capability, probed once at first use. When the capability is not compiled
// in (nonuma build tag), cannot be acquired or reports that NUMA is not
// available, the package (physical id) is used as the NUMA node and a single
// warning is logged.

package hwtopo

import (
	"fmt"
	"sync"
)

const (
	NUMA_NOT_CONFIGURED_WARNING = "NUMA support not configured (built w/ nonuma tag). " +
		"Assuming NUMA topology matches socket topology."
	NUMA_NOT_PRESENT_WARNING = "NUMA support configured but not present at runtime. " +
		"Assuming NUMA topology matches socket topology."
)

var NumaLog = Log.WithField(
	LOGGER_COMPONENT_FIELD_NAME,
	"Numa",
)

// The NUMA query entry points:
type NumaCapability interface {
	// >= 0 if NUMA is usable:
	Available() int
	// Must be > 0:
	ConfiguredNodeCount() int
	// Negative on error:
	NodeOfProcessor(cpu int) int
}

type NumaCapabilityAcquireFn func() (NumaCapability, error)

type NumaResolver interface {
	NumaNode(rec *RawThreadRecord) (int, error)
}

// Resolve via a NUMA capability that claimed availability:
type capabilityNumaResolver struct {
	capability NumaCapability
}

func (r *capabilityNumaResolver) NumaNode(rec *RawThreadRecord) (int, error) {
	node := r.capability.NodeOfProcessor(rec.LogicalId)
	if node < 0 {
		return -1, fmt.Errorf("failed finding NUMA node for processor %d", rec.LogicalId)
	}
	return node, nil
}

// Fallback, the package is the NUMA node:
type packageNumaResolver struct{}

func (r packageNumaResolver) NumaNode(rec *RawThreadRecord) (int, error) {
	return rec.PackageId, nil
}

// The detector probes the capability at the 1st Resolve and it owns the
// selection and the warned state:
type NumaDetector struct {
	// Whether NUMA support is compiled in:
	configured bool
	// How to acquire the capability:
	acquire NumaCapabilityAcquireFn
	// The selected resolver, nil before the probe:
	resolver NumaResolver
	// Whether the fallback warning was issued:
	warned bool
	lock   sync.Mutex
}

func NewNumaDetector(configured bool, acquire NumaCapabilityAcquireFn) *NumaDetector {
	return &NumaDetector{
		configured: configured,
		acquire:    acquire,
	}
}

// Build a detector for the platform capability rooted at sysfsRoot:
func NewPlatformNumaDetector(sysfsRoot string) *NumaDetector {
	return NewNumaDetector(
		NUMA_SUPPORT_CONFIGURED,
		func() (NumaCapability, error) {
			return NewPlatformNumaCapability(sysfsRoot)
		},
	)
}

func (d *NumaDetector) warnOnce(msg string) {
	if !d.warned {
		d.warned = true
		NumaLog.Warn(msg)
	}
}

func (d *NumaDetector) probe() NumaResolver {
	if !d.configured {
		d.warnOnce(NUMA_NOT_CONFIGURED_WARNING)
		return packageNumaResolver{}
	}
	var capability NumaCapability
	var err error
	if d.acquire != nil {
		capability, err = d.acquire()
	}
	switch {
	case err != nil:
		NumaLog.Debug(err)
	case capability == nil:
	case capability.Available() < 0:
	case capability.ConfiguredNodeCount() <= 0:
	default:
		return &capabilityNumaResolver{capability}
	}
	d.warnOnce(NUMA_NOT_PRESENT_WARNING)
	return packageNumaResolver{}
}

// Return the selected resolver, probing if needed:
func (d *NumaDetector) Resolver() NumaResolver {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.resolver == nil {
		d.resolver = d.probe()
	}
	return d.resolver
}

// Whether the capability backed resolver was selected:
func (d *NumaDetector) IsAvailable() bool {
	_, ok := d.Resolver().(*capabilityNumaResolver)
	return ok
}

func (d *NumaDetector) Resolve(rec *RawThreadRecord) (int, error) {
	return d.Resolver().NumaNode(rec)
}
