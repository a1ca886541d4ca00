// Package worker implements the confine worker process: it receives a
// job over the one-shot channel, installs the resource caps before the
// payload starts, runs the registered task and reports a single outcome
// back to the supervisor.
package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-confine/confine/pkg/oneshot"
	"github.com/go-confine/confine/runner"
)

// InitArg marks a process as a confine worker when present as argv[1]
const InitArg = "confine:worker"

// the one-shot channel is shared at fd 3 (first ExtraFiles slot)
const connFd = 3

// TaskFunc is a unit of work runnable inside a worker. Argument and
// result bytes are opaque to the engine; the caller owns their encoding.
// The context is cancelled when a graceful stop is requested.
type TaskFunc func(ctx context.Context, args []byte) ([]byte, error)

// Request is the job description sent from the supervisor
type Request struct {
	Task   string
	Args   []byte
	Limits runner.Limits
}

var (
	tasksMu sync.RWMutex
	tasks   = make(map[string]TaskFunc)
)

// Register makes a task callable by name inside worker processes. It
// must run before main (typically from an init function) so the task is
// present in both the parent and the re-executed worker binary.
// Registering a nil task or a duplicate name panics.
func Register(name string, fn TaskFunc) {
	tasksMu.Lock()
	defer tasksMu.Unlock()
	if fn == nil {
		panic("confine: Register task is nil")
	}
	if _, dup := tasks[name]; dup {
		panic("confine: Register called twice for task " + name)
	}
	tasks[name] = fn
}

func lookup(name string) (TaskFunc, bool) {
	tasksMu.RLock()
	defer tasksMu.RUnlock()
	fn, ok := tasks[name]
	return fn, ok
}

// Main runs the worker protocol and never returns. It is entered through
// confine.Init in a process spawned with InitArg.
func Main() {
	os.Exit(run())
}

func run() int {
	conn := oneshot.Open(connFd)
	defer conn.Close()

	var req Request
	if err := conn.Recv(&req); err != nil {
		fmt.Fprintf(os.Stderr, "confine worker: failed to receive job: %v\n", err)
		return 1
	}

	res := Execute(req)
	if err := conn.Send(res); err != nil {
		fmt.Fprintf(os.Stderr, "confine worker: failed to send outcome: %v\n", err)
		return 1
	}
	return 0
}

// Execute applies the limits and runs the task, producing the single
// outcome for this worker. Limits are installed strictly before the
// payload goroutine starts.
func Execute(req Request) runner.Result {
	limits := req.Limits.WithDefaults()

	degraded, err := applyLimits(limits)
	if err != nil {
		return runner.Result{
			Status: runner.StatusInternalFailure,
			Error:  fmt.Sprintf("failed to apply limits: %v", err),
		}
	}

	fn, ok := lookup(req.Task)
	if !ok {
		return runner.Result{
			Status: runner.StatusInternalFailure,
			Error:  fmt.Sprintf("task %q not registered in worker binary", req.Task),
		}
	}

	// limit breach signals are only forwarded here; classification and
	// the outcome write happen on this goroutine
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGXCPU, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan runner.Result, 1)
	go func() {
		done <- runPayload(ctx, fn, req.Args, limits.Memory > 0)
	}()

	var res runner.Result
	select {
	case res = <-done:

	case sig := <-sigCh:
		// a breach is terminal: a payload return racing past this point
		// no longer changes the classification
		res = runner.Result{Status: classifySignal(sig)}
		cancel()
		// leave the payload part of the grace period to unwind, but
		// keep enough to get the outcome written before the force kill
		select {
		case <-done:
		case <-time.After(limits.GracePeriod / 2):
		}
	}

	res.Degraded = degraded
	res.Time, res.Memory = selfUsage()
	return res
}

// classifySignal maps a forwarded stop signal to the worker-side status.
// SIGTERM is the watchdog's graceful stop request; the supervisor
// overrides the status with the classification it recorded when
// escalating, so Killed only survives for stops the engine did not ask
// for.
func classifySignal(sig os.Signal) runner.Status {
	if sig == syscall.SIGXCPU {
		return runner.StatusCPUTimeExceeded
	}
	return runner.StatusKilled
}

func runPayload(ctx context.Context, fn TaskFunc, args []byte, memLimited bool) (res runner.Result) {
	defer func() {
		if p := recover(); p != nil {
			res = runner.Result{
				Status:  runner.StatusRaisedError,
				ErrInfo: panicInfo(p),
			}
		}
	}()

	out, err := fn(ctx, args)
	if err != nil {
		st := runner.StatusRaisedError
		if memLimited && errors.Is(err, syscall.ENOMEM) {
			st = runner.StatusMemoryExceeded
		}
		return runner.Result{Status: st, ErrInfo: Describe(err)}
	}
	return runner.Result{Status: runner.StatusSuccess, Payload: out}
}
