// Bind the calling thread to a hardware context.
//
// The goroutine is locked to its OS thread before the affinity is changed and
// it stays locked, otherwise the runtime could move it to a thread w/ a
// different affinity.

package hwtopo

import (
	"errors"
	"sync"
)

var ErrAffinityNotSupported = errors.New("cpu affinity not supported on this platform")

var AffinityLog = Log.WithField(
	LOGGER_COMPONENT_FIELD_NAME,
	"Affinity",
)

type BindSelfFn func(osHardwareContext int) error

type AffinityBinder struct {
	bindSelf BindSelfFn
	// Whether the unsupported platform warning was issued:
	warned bool
	lock   sync.Mutex
}

// If bindSelf is nil then the platform one is used.
func NewAffinityBinder(bindSelf BindSelfFn) *AffinityBinder {
	if bindSelf == nil {
		bindSelf = bindSelfPlatform
	}
	return &AffinityBinder{bindSelf: bindSelf}
}

func (b *AffinityBinder) BindSelf(osHardwareContext int) bool {
	err := b.bindSelf(osHardwareContext)
	if err == nil {
		return true
	}
	if errors.Is(err, ErrAffinityNotSupported) {
		b.lock.Lock()
		if !b.warned {
			b.warned = true
			AffinityLog.Warnf("%s. Performance will be bad.", err)
		}
		b.lock.Unlock()
		return false
	}
	AffinityLog.Warnf("Could not set CPU affinity to %d (%s)", osHardwareContext, err)
	return false
}

var GlobalAffinityBinder = NewAffinityBinder(nil)

func BindSelf(osHardwareContext int) bool {
	return GlobalAffinityBinder.BindSelf(osHardwareContext)
}
