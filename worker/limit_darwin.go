//go:build darwin

package worker

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/go-confine/confine/pkg/rlimit"
	"github.com/go-confine/confine/runner"
)

// applyLimits installs the CPU cap; RLIMIT_AS is not enforced by the
// darwin kernel, so a requested memory cap degrades to a warning instead
// of failing the run.
func applyLimits(l runner.Limits) ([]string, error) {
	var degraded []string
	rl := rlimit.RLimits{DisableCore: true}
	if l.CPUTime > 0 {
		rl.CPU = ceilSeconds(l.CPUTime)
		rl.CPUHard = rl.CPU + ceilSeconds(l.GracePeriod)
	}
	if l.Memory > 0 {
		degraded = append(degraded, runner.CapabilityMemory.String())
	}
	for _, r := range rl.PrepareRLimit() {
		if err := r.Apply(); err != nil {
			return degraded, err
		}
	}
	return degraded, nil
}

func ceilSeconds(d time.Duration) uint64 {
	s := uint64(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return s
}

// selfUsage reports consumed user CPU time and peak resident memory
func selfUsage() (time.Duration, runner.Size) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return 0, 0
	}
	cpu := time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
	return cpu, runner.Size(ru.Maxrss) // bytes on darwin
}
