package supervisor

import (
	"errors"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// reapSettle is how long descendants get to honor the terminate request
// before the sweep escalates to SIGKILL.
const reapSettle = 50 * time.Millisecond

// reapTree sweeps processes the worker left behind. The group kill
// covers everything still in the worker's process group; the process
// table walk catches descendants that detached into their own group.
// Best-effort throughout: races with natural exits are expected and
// permission failures are logged, never surfaced as a run failure.
func reapTree(pid int, grace time.Duration, log *zap.Logger) {
	victims := descendants(int32(pid))

	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		log.Warn("process group sweep failed", zap.Error(err))
	}
	if len(victims) == 0 {
		return
	}
	log.Debug("terminating leftover descendants", zap.Int("count", len(victims)))

	for _, p := range victims {
		if err := p.Terminate(); err != nil && !errors.Is(err, syscall.ESRCH) {
			log.Warn("failed to terminate descendant",
				zap.Int32("pid", p.Pid), zap.Error(err))
		}
	}
	time.Sleep(minDuration(grace, reapSettle))
	for _, p := range victims {
		if running, err := p.IsRunning(); err != nil || !running {
			continue
		}
		if err := p.Kill(); err != nil && !errors.Is(err, syscall.ESRCH) {
			log.Warn("failed to kill descendant",
				zap.Int32("pid", p.Pid), zap.Error(err))
		}
	}
}

// descendants snapshots the worker's process tree, breadth first. The
// worker itself is usually gone by the time the sweep runs, in which
// case the snapshot is empty and the group kill does all the work.
func descendants(pid int32) []*process.Process {
	root, err := process.NewProcess(pid)
	if err != nil {
		return nil
	}
	var out []*process.Process
	queue := []*process.Process{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		kids, err := cur.Children()
		if err != nil {
			continue
		}
		out = append(out, kids...)
		queue = append(queue, kids...)
	}
	return out
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
