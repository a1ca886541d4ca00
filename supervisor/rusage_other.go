//go:build !linux && !darwin

package supervisor

import (
	"syscall"
	"time"

	"github.com/go-confine/confine/runner"
)

func rusageCPU(_ *syscall.Rusage) time.Duration { return 0 }

func rusageMaxRSS(_ *syscall.Rusage) runner.Size { return 0 }
