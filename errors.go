package confine

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-confine/confine/runner"
)

// ConfigError reports an invalid limit specification, returned by Run
// before any worker is spawned.
type ConfigError = runner.ConfigError

// TimeoutKind distinguishes the two time budgets a run can exhaust
type TimeoutKind int

const (
	TimeoutCPU TimeoutKind = iota
	TimeoutWall
)

func (k TimeoutKind) String() string {
	if k == TimeoutCPU {
		return "cpu time"
	}
	return "wall time"
}

// TimeoutError reports a run that exhausted its CPU or wall-clock budget
type TimeoutError struct {
	Kind  TimeoutKind
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("confine: %s limit of %v exceeded", e.Kind, e.Limit)
}

// MemoryError reports a run that breached its memory cap. Suspected is
// set when the worker died without reporting and the breach was inferred
// from the shape of its death rather than measured.
type MemoryError struct {
	Limit     runner.Size
	Suspected bool
}

func (e *MemoryError) Error() string {
	if e.Suspected {
		return fmt.Sprintf("confine: worker died under the %v memory limit (suspected breach)", e.Limit)
	}
	return fmt.Sprintf("confine: memory limit of %v exceeded", e.Limit)
}

// KilledError reports a worker that died for a reason the engine did not
// cause: an external signal, a cancelled context, or a stop escalation
// the worker did not survive.
type KilledError struct {
	ExitStatus int
	Reason     string
}

func (e *KilledError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("confine: worker killed: %s", e.Reason)
	}
	return fmt.Sprintf("confine: worker killed (exit status %d)", e.ExitStatus)
}

// InternalError reports a fault in the engine itself rather than in the
// task. It is returned from Run even when raises is disabled.
type InternalError struct {
	Reason string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("confine: internal failure: %s", e.Reason)
}

// WorkerError carries a task error across the process boundary when no
// registered kind reconstructs it, or when the wrap policy forces it.
// Trace holds the worker-side detail (a stack for panics).
type WorkerError struct {
	Kind    string
	Message string
	Trace   string
}

func (e *WorkerError) Error() string {
	if e.Kind == "" {
		return e.Message
	}
	return e.Kind + ": " + e.Message
}

// WrapPolicy selects which task error kinds are wrapped as *WorkerError
// instead of reconstructed. The zero value wraps nothing.
type WrapPolicy struct {
	// All wraps every task error
	All bool
	// Kinds wraps only the named kinds
	Kinds []string
}

func (p WrapPolicy) matches(kind string) bool {
	if p.All {
		return true
	}
	for _, k := range p.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

var errKinds struct {
	sync.RWMutex
	m map[string]func(runner.ErrorInfo) error
}

// RegisterErrorKind maps a worker-side error kind to a constructor so
// the caller gets back a typed error instead of a generic WorkerError.
// Kinds are matched against Kinder implementations and type names on the
// worker side. Registering a nil constructor or a duplicate kind panics.
func RegisterErrorKind(kind string, fn func(runner.ErrorInfo) error) {
	errKinds.Lock()
	defer errKinds.Unlock()
	if fn == nil {
		panic("confine: RegisterErrorKind constructor is nil")
	}
	if errKinds.m == nil {
		errKinds.m = make(map[string]func(runner.ErrorInfo) error)
	}
	if _, dup := errKinds.m[kind]; dup {
		panic("confine: RegisterErrorKind called twice for kind " + kind)
	}
	errKinds.m[kind] = fn
}

func lookupErrorKind(kind string) func(runner.ErrorInfo) error {
	errKinds.RLock()
	defer errKinds.RUnlock()
	return errKinds.m[kind]
}

// reconstruct turns the transported error description back into a
// caller-side error: wrap policy first, then the kind registry, then the
// generic fallback.
func reconstruct(info *runner.ErrorInfo, wrap WrapPolicy) error {
	if info == nil {
		return &WorkerError{Message: "worker reported an error without details"}
	}
	if wrap.matches(info.Kind) {
		return &WorkerError{Kind: info.Kind, Message: info.Message, Trace: info.Trace}
	}
	if fn := lookupErrorKind(info.Kind); fn != nil {
		return fn(*info)
	}
	return &WorkerError{Kind: info.Kind, Message: info.Message, Trace: info.Trace}
}
