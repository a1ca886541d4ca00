//go:build darwin

package confine

import "github.com/go-confine/confine/runner"

// Supports reports whether this platform can enforce the given limit.
// The darwin kernel accepts but does not enforce RLIMIT_AS, so memory
// limits degrade to a warning.
func Supports(c runner.Capability) bool {
	switch c {
	case runner.CapabilityCPUTime, runner.CapabilityWallTime:
		return true
	}
	return false
}
