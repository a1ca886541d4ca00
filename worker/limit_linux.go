//go:build linux

package worker

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/go-confine/confine/pkg/rlimit"
	"github.com/go-confine/confine/runner"
)

// applyLimits installs the OS-enforced caps for this run before the
// payload starts, returning the capabilities that could not be enforced.
//
// CPU soft limit triggers the kernel's SIGXCPU notification at the cap;
// the hard limit adds the grace period, after which the kernel kills the
// process without any cooperation from us. Memory is an address-space
// cap, so allocations beyond it fail inside the worker.
func applyLimits(l runner.Limits) ([]string, error) {
	rl := rlimit.RLimits{DisableCore: true}
	if l.CPUTime > 0 {
		rl.CPU = ceilSeconds(l.CPUTime)
		rl.CPUHard = rl.CPU + ceilSeconds(l.GracePeriod)
	}
	if l.Memory > 0 {
		rl.AddressSpace = l.Memory.Byte()
	}
	for _, r := range rl.PrepareRLimit() {
		if err := r.Apply(); err != nil {
			return nil, err
		}
	}
	return nil, nil
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
	return cpu, runner.Size(ru.Maxrss << 10) // kb on linux
}
