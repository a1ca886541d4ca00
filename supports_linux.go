//go:build linux

package confine

import "github.com/go-confine/confine/runner"

// Supports reports whether this platform can enforce the given limit.
// Linux enforces all three.
func Supports(c runner.Capability) bool {
	switch c {
	case runner.CapabilityMemory, runner.CapabilityCPUTime, runner.CapabilityWallTime:
		return true
	}
	return false
}
