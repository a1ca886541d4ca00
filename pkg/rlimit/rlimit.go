// Package rlimit provides data structure for resource limits applied to
// the confine worker by the setrlimit syscall before the payload starts.
package rlimit

import (
	"fmt"
	"strings"
	"syscall"

	"github.com/go-confine/confine/runner"
)

// RLimits defines the rlimit applied by setrlimit syscall to the worker
// process. CPU is the soft cap after which the kernel delivers SIGXCPU;
// CPUHard is the hard cap after which the kernel kills the process.
type RLimits struct {
	CPU          uint64 // in s, SIGXCPU notification
	CPUHard      uint64 // in s, kernel SIGKILL
	AddressSpace uint64 // in bytes
	DisableCore  bool   // set core to 0
}

// RLimit is a single resource limit defined by POSIX setrlimit
type RLimit struct {
	// Res is the resource type (e.g. syscall.RLIMIT_CPU)
	Res int
	// Rlim is the limit applied to that resource
	Rlim syscall.Rlimit
}

// Apply installs the limit on the calling process
func (r RLimit) Apply() error {
	if err := syscall.Setrlimit(r.Res, &r.Rlim); err != nil {
		return fmt.Errorf("setrlimit %s: %w", r.String(), err)
	}
	return nil
}

func getRlimit(cur, max uint64) syscall.Rlimit {
	return syscall.Rlimit{Cur: cur, Max: max}
}

// PrepareRLimit creates rlimit structures for the worker.
// CPU limits in s, size limits in bytes.
func (r *RLimits) PrepareRLimit() []RLimit {
	var ret []RLimit
	if r.CPU > 0 {
		cpuHard := r.CPUHard
		if cpuHard < r.CPU {
			cpuHard = r.CPU
		}

		ret = append(ret, RLimit{
			Res:  syscall.RLIMIT_CPU,
			Rlim: getRlimit(r.CPU, cpuHard),
		})
	}
	if r.AddressSpace > 0 {
		ret = append(ret, RLimit{
			Res:  syscall.RLIMIT_AS,
			Rlim: getRlimit(r.AddressSpace, r.AddressSpace),
		})
	}
	if r.DisableCore {
		ret = append(ret, RLimit{
			Res:  syscall.RLIMIT_CORE,
			Rlim: getRlimit(0, 0),
		})
	}
	return ret
}

func (r RLimit) String() string {
	if r.Res == syscall.RLIMIT_CPU {
		return fmt.Sprintf("CPU[%d s:%d s]", r.Rlim.Cur, r.Rlim.Max)
	}
	t := ""
	switch r.Res {
	case syscall.RLIMIT_AS:
		t = "AddressSpace"
	case syscall.RLIMIT_CORE:
		t = "Core"
	}
	return fmt.Sprintf("%s[%v:%v]", t, runner.Size(r.Rlim.Cur), runner.Size(r.Rlim.Max))
}

func (r RLimits) String() string {
	var sb strings.Builder
	sb.WriteString("RLimits[")
	for i, rl := range r.PrepareRLimit() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(rl.String())
	}
	sb.WriteString("]")
	return sb.String()
}
