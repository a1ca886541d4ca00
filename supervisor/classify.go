package supervisor

import (
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/go-confine/confine/runner"
)

// classify reconciles the worker-reported outcome with what the kernel
// says about the worker's death. The watchdog's recorded classification
// takes precedence over the message, since a worker that had to be
// stopped may still have raced a stale outcome onto the channel.
func classify(res runner.Result, gotMsg bool, wd *watchdog, ps *os.ProcessState,
	limits runner.Limits, log *zap.Logger) runner.Result {

	var (
		ws syscall.WaitStatus
		ru *syscall.Rusage
	)
	if ps != nil {
		ws, _ = ps.Sys().(syscall.WaitStatus)
		ru, _ = ps.SysUsage().(*syscall.Rusage)
	}
	// kernel accounting is authoritative over the worker's self-report
	if ru != nil {
		res.Time = rusageCPU(ru)
		if m := rusageMaxRSS(ru); m > res.Memory {
			res.Memory = m
		}
	}
	if res.ExitStatus == 0 {
		res.ExitStatus = exitStatus(ws)
	}

	if st := wd.classification(); st != runner.StatusInvalid {
		res.Status = st
		res.Payload = nil
		res.ErrInfo = nil
		return res
	}

	if gotMsg {
		if res.Status == runner.StatusInvalid {
			res.Status = runner.StatusInternalFailure
			res.Error = "worker reported no status"
		}
		return res
	}

	st, suspected := classifyExit(ws, res.Time, res.Memory, limits)
	if suspected {
		log.Warn("worker died without reporting; attributing to the memory limit",
			zap.Int("exit_status", res.ExitStatus))
	}
	res.Status = st
	return res
}

// classifyExit explains a worker that died without getting an outcome
// onto the channel. CPU evidence is checked first: a SIGXCPU death or
// consumed CPU at the cap is unambiguous. Under a memory cap the usual
// shapes of an allocation-failure death follow; the Go runtime aborts
// with exit status 2 when it cannot grow the heap, native code tends to
// die on SIGSEGV or SIGABRT. Everything else is an external kill.
//
// The second return reports whether the memory attribution is a guess
// rather than a measurement.
func classifyExit(ws syscall.WaitStatus, cpu time.Duration, maxRSS runner.Size,
	limits runner.Limits) (runner.Status, bool) {

	if ws.Signaled() && ws.Signal() == syscall.SIGXCPU {
		return runner.StatusCPUTimeExceeded, false
	}
	if limits.CPUTime > 0 && cpu >= limits.CPUTime {
		return runner.StatusCPUTimeExceeded, false
	}
	if limits.Memory > 0 {
		if maxRSS >= limits.Memory {
			return runner.StatusMemoryExceeded, false
		}
		if ws.Signaled() {
			switch ws.Signal() {
			case syscall.SIGSEGV, syscall.SIGABRT, syscall.SIGKILL:
				return runner.StatusMemoryExceeded, true
			}
		}
		if ws.Exited() && ws.ExitStatus() == 2 {
			return runner.StatusMemoryExceeded, true
		}
	}
	return runner.StatusKilled, false
}

// exitStatus flattens a wait status into the exit code, or the signal
// number for a signaled death.
func exitStatus(ws syscall.WaitStatus) int {
	switch {
	case ws.Signaled():
		return int(ws.Signal())
	case ws.Exited():
		return ws.ExitStatus()
	}
	return 0
}
