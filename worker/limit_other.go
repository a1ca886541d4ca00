//go:build !linux && !darwin

package worker

import (
	"time"

	"github.com/go-confine/confine/runner"
)

// applyLimits degrades every OS-enforced cap on platforms without a
// limiter strategy; wall-time enforcement stays with the supervisor.
func applyLimits(l runner.Limits) ([]string, error) {
	var degraded []string
	if l.Memory > 0 {
		degraded = append(degraded, runner.CapabilityMemory.String())
	}
	if l.CPUTime > 0 {
		degraded = append(degraded, runner.CapabilityCPUTime.String())
	}
	return degraded, nil
}

func selfUsage() (time.Duration, runner.Size) {
	return 0, 0
}
