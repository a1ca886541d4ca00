//go:build darwin

package supervisor

import (
	"syscall"
	"time"

	"github.com/go-confine/confine/runner"
)

func rusageCPU(ru *syscall.Rusage) time.Duration {
	return time.Duration(ru.Utime.Nano() + ru.Stime.Nano())
}

func rusageMaxRSS(ru *syscall.Rusage) runner.Size {
	return runner.Size(ru.Maxrss) // bytes on darwin
}
