// Package supervisor spawns and oversees a single worker process: it
// wires the one-shot result channel, arms the wall-clock watchdog,
// collects the outcome and reconciles it with what the kernel reports
// about the worker's death.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/go-confine/confine/pkg/oneshot"
	"github.com/go-confine/confine/runner"
	"github.com/go-confine/confine/worker"
)

// forceExitTimeout bounds the wait for a worker that received SIGKILL;
// if it still shows up as running after this long, something is wrong
// on the host and the run is reported as an internal failure rather
// than blocking the caller forever.
const forceExitTimeout = 10 * time.Second

// Policy carries the per-run behavior knobs that are enforced on the
// supervisor side.
type Policy struct {
	// Name overrides the task name used for the worker's argv, which is
	// what shows up in process listings.
	Name string
	// TerminateChildProcesses sweeps descendants the worker left behind
	// once the run is over.
	TerminateChildProcesses bool
}

// Supervisor runs one job in a fresh worker process. It is single-use:
// create one per run.
type Supervisor struct {
	Task   string
	Args   []byte
	Limits runner.Limits
	Policy Policy
	Logger *zap.Logger
}

// Run executes the job and blocks until the worker is gone and the
// outcome is classified. Cancelling ctx requests a graceful stop and
// escalates to a kill after the grace period; the result then reports
// Killed. Run never returns while the worker process is still alive.
func (s *Supervisor) Run(ctx context.Context) runner.Result {
	log := s.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limits := s.Limits.WithDefaults()
	log = log.With(zap.String("run", uuid.NewString()), zap.String("task", s.Task))

	sTime := time.Now()

	conn, peer, err := oneshot.New()
	if err != nil {
		return internal("failed to create result channel: %v", err)
	}
	defer conn.Close()

	exe, err := os.Executable()
	if err != nil {
		peer.Close()
		return internal("failed to resolve executable: %v", err)
	}

	name := s.Policy.Name
	if name == "" {
		name = s.Task
	}

	// the worker is its own process group leader so the watchdog and the
	// reaper can address the whole tree at once
	cmd := exec.Cmd{
		Path:        exe,
		Args:        []string{os.Args[0], worker.InitArg, name},
		Env:         os.Environ(),
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		ExtraFiles:  []*os.File{peer},
		SysProcAttr: &syscall.SysProcAttr{Setpgid: true},
	}
	if err := cmd.Start(); err != nil {
		peer.Close()
		return internal("failed to spawn worker: %v", err)
	}
	peer.Close()
	pid := cmd.Process.Pid
	log.Debug("worker started", zap.Int("pid", pid))

	if err := conn.Send(worker.Request{Task: s.Task, Args: s.Args, Limits: limits}); err != nil {
		// the worker never picked the job up; tear it down before failing
		_ = unix.Kill(-pid, unix.SIGKILL)
		_ = cmd.Wait()
		return internal("failed to send job to worker: %v", err)
	}
	mTime := time.Now()

	res := s.collect(ctx, log, conn, &cmd, limits, mTime)

	if s.Policy.TerminateChildProcesses {
		reapTree(pid, limits.GracePeriod, log)
	}

	res.SetUpTime = mTime.Sub(sTime)
	res.RunningTime = time.Since(mTime)
	log.Debug("run finished",
		zap.Stringer("status", res.Status),
		zap.Duration("time", res.Time),
		zap.Stringer("memory", res.Memory))
	return res
}

type recvMsg struct {
	res runner.Result
	err error
}

// collect waits for the worker's outcome and exit, enforcing the wall
// deadline and the stop escalation while it waits. It returns once the
// worker has been reaped (or declared stuck after a force kill).
func (s *Supervisor) collect(ctx context.Context, log *zap.Logger, conn *oneshot.Conn,
	cmd *exec.Cmd, limits runner.Limits, mTime time.Time) runner.Result {

	wd := newWatchdog(cmd.Process.Pid, log)

	msgCh := make(chan recvMsg, 1)
	go func() {
		var r runner.Result
		err := conn.Recv(&r)
		msgCh <- recvMsg{res: r, err: err}
	}()

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var (
		res    runner.Result
		gotMsg bool

		wallC     <-chan time.Time
		graceC    <-chan time.Time
		failsafeC <-chan time.Time
		doneC     = ctx.Done()
	)
	// the deadline is anchored at the moment the job was handed over,
	// not at timer creation, so setup cost never eats into the budget
	if limits.WallTime > 0 {
		t := time.NewTimer(time.Until(mTime.Add(limits.WallTime)))
		defer t.Stop()
		wallC = t.C
	}

	for exited := false; !exited; {
		select {
		case m := <-msgCh:
			msgCh = nil
			if m.err == nil {
				res = m.res
				gotMsg = true
				if n := conn.BytesRead(); n > oneshot.WarnSize {
					log.Warn("large result payload; consider returning a reference instead",
						zap.Int64("bytes", n))
				}
			} else if m.err != io.EOF {
				log.Warn("result channel read failed", zap.Error(m.err))
			}
			// the outcome is settled, only the exit remains; do not let
			// a lingering payload goroutine hold the call open
			wallC = nil
			if graceC == nil {
				graceC = time.After(limits.GracePeriod)
			}

		case err := <-waitCh:
			exited = true
			_ = err // non-zero exits are classified from ProcessState

		case <-wallC:
			wallC = nil
			if c := wd.requestGrace(runner.StatusWallTimeExceeded, limits.GracePeriod); c != nil {
				graceC = c
			}

		case <-doneC:
			doneC = nil
			wallC = nil
			if c := wd.requestGrace(runner.StatusKilled, limits.GracePeriod); c != nil {
				graceC = c
			}

		case <-graceC:
			graceC = nil
			if gotMsg {
				// outcome already in hand, just clear the process
				_ = unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
			} else {
				wd.forceKill()
			}
			failsafeC = time.After(forceExitTimeout)

		case <-failsafeC:
			return internal("worker %d did not exit after SIGKILL", cmd.Process.Pid)
		}
	}

	// a message may have raced the exit: the worker can write the outcome
	// into the socket buffer and die before we read it
	if !gotMsg && msgCh != nil {
		select {
		case m := <-msgCh:
			if m.err == nil {
				res = m.res
				gotMsg = true
			}
		case <-time.After(100 * time.Millisecond):
		}
	}

	return classify(res, gotMsg, wd, cmd.ProcessState, limits, log)
}

func internal(format string, a ...interface{}) runner.Result {
	return runner.Result{
		Status: runner.StatusInternalFailure,
		Error:  fmt.Sprintf(format, a...),
	}
}
