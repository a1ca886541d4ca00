// Package confine runs registered tasks in short-lived child processes
// under resource limits. A run hands the task to a re-executed copy of
// the current binary, caps its memory and CPU time in the kernel,
// enforces the wall-clock deadline from the parent and reports one
// outcome per run: the task's result, the error it raised, or the limit
// it breached.
//
// Tasks must be registered before main runs, and main must call Init
// first thing so a process started as a worker never falls through to
// the caller's own logic:
//
//	func init() {
//		confine.Register("fit", fitModel)
//	}
//
//	func main() {
//		confine.Init()
//		out, err := confine.Run(ctx, "fit", args, runner.Limits{
//			Memory:   runner.Size(512 << 20),
//			WallTime: time.Minute,
//		})
//		...
//	}
package confine

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/go-confine/confine/runner"
	"github.com/go-confine/confine/supervisor"
	"github.com/go-confine/confine/worker"
)

type emptyResult struct{}

func (emptyResult) String() string { return "EMPTY" }

// EMPTY is the sentinel Outcome.Value returns when a run produced no
// result: the worker breached a limit, raised an error, or was killed.
// It is distinct from every legitimate payload, including a nil payload
// from a successful task.
var EMPTY = emptyResult{}

// Outcome is the full record of one run. Status and the usage figures
// are populated for every run; Payload only on success; Err for every
// non-success status.
type Outcome struct {
	Status     runner.Status
	Payload    []byte
	Err        error
	ExitStatus int
	// Time is consumed CPU time, Memory the peak resident set, both as
	// accounted by the kernel for the worker process.
	Time   time.Duration
	Memory runner.Size
	// SetUpTime is what spawning the worker cost; RunningTime spans job
	// handover to worker exit.
	SetUpTime   time.Duration
	RunningTime time.Duration
}

// Value returns the task's payload on success and EMPTY otherwise. It
// is the suppressed-error companion to Run's error return: with
// WithRaises(false) a caller can branch on Value() == EMPTY alone.
func (o *Outcome) Value() interface{} {
	if o.Status == runner.StatusSuccess {
		return o.Payload
	}
	return EMPTY
}

// Run executes a registered task in a fresh worker process under the
// given limits and blocks until the worker is gone. The returned
// Outcome is non-nil whenever the run was attempted; err reflects the
// outcome per the raises policy. Limit violations surface as
// *TimeoutError or *MemoryError, external kills as *KilledError, task
// errors are reconstructed through the error-kind registry, and engine
// faults are always returned as *InternalError regardless of policy.
//
// Cancelling ctx stops the worker (gracefully, then by force) and
// reports Killed.
func Run(ctx context.Context, task string, args []byte, limits runner.Limits, opts ...Option) (*Outcome, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	limits = limits.WithDefaults()
	if o.gracePeriod > 0 {
		limits.GracePeriod = o.gracePeriod
	}
	if err := limits.Validate(); err != nil {
		return nil, err
	}

	log := o.logger()
	warnDegraded(log, limits)

	sup := supervisor.Supervisor{
		Task:   task,
		Args:   args,
		Limits: limits,
		Policy: supervisor.Policy{
			Name:                    o.name,
			TerminateChildProcesses: o.terminateChildren,
		},
		Logger: log,
	}
	res := sup.Run(ctx)

	for _, cap := range res.Degraded {
		log.Warn("limit not enforced on this platform", zap.String("capability", cap))
	}
	return finalize(res, &o, limits)
}

// warnDegraded surfaces, before the worker is even spawned, the limits
// this platform cannot enforce. The worker reports the same set back
// for the run record.
func warnDegraded(log *zap.Logger, limits runner.Limits) {
	if limits.Memory > 0 && !Supports(runner.CapabilityMemory) {
		log.Warn("limit not enforceable on this platform",
			zap.Stringer("capability", runner.CapabilityMemory))
	}
	if limits.CPUTime > 0 && !Supports(runner.CapabilityCPUTime) {
		log.Warn("limit not enforceable on this platform",
			zap.Stringer("capability", runner.CapabilityCPUTime))
	}
}

// finalize maps the collected result onto the public Outcome and applies
// the raises policy. Internal failures are never suppressed.
func finalize(res runner.Result, o *options, limits runner.Limits) (*Outcome, error) {
	out := &Outcome{
		Status:      res.Status,
		Payload:     res.Payload,
		ExitStatus:  res.ExitStatus,
		Time:        res.Time,
		Memory:      res.Memory,
		SetUpTime:   res.SetUpTime,
		RunningTime: res.RunningTime,
	}

	switch res.Status {
	case runner.StatusSuccess:
		return out, nil
	case runner.StatusRaisedError:
		out.Err = reconstruct(res.ErrInfo, o.wrap)
	case runner.StatusCPUTimeExceeded:
		out.Err = &TimeoutError{Kind: TimeoutCPU, Limit: limits.CPUTime}
	case runner.StatusWallTimeExceeded:
		out.Err = &TimeoutError{Kind: TimeoutWall, Limit: limits.WallTime}
	case runner.StatusMemoryExceeded:
		// a breach the worker reported itself carries error details; one
		// inferred from a silent death does not and stays a suspicion
		out.Err = &MemoryError{Limit: limits.Memory, Suspected: res.ErrInfo == nil}
	case runner.StatusKilled:
		out.Err = &KilledError{ExitStatus: res.ExitStatus, Reason: res.Error}
	case runner.StatusInternalFailure:
		out.Err = &InternalError{Reason: res.Error}
		return out, out.Err
	default:
		out.Err = &InternalError{Reason: "run produced no status"}
		return out, out.Err
	}

	if !o.raises {
		return out, nil
	}
	return out, out.Err
}

// Init routes a process started as a worker into the worker main loop
// and never returns in that case. Call it at the top of main, before
// any flag parsing or other argv interpretation.
func Init() {
	if len(os.Args) > 1 && os.Args[1] == worker.InitArg {
		worker.Main()
	}
}
