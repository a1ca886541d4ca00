//go:build !linux && !darwin

package confine

import "github.com/go-confine/confine/runner"

// Supports reports whether this platform can enforce the given limit.
// Without a limiter strategy only the supervisor-side wall clock is
// enforceable.
func Supports(c runner.Capability) bool {
	return c == runner.CapabilityWallTime
}
