package runner

import (
	"fmt"
	"time"
)

// ErrorInfo is a serializable, language-neutral description of a failure
// raised inside the worker
type ErrorInfo struct {
	Kind    string // error kind name used for reconstruction
	Message string // error message
	Trace   string // stack trace or detailed rendering
}

func (e *ErrorInfo) String() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Result is the outcome of a confined task run
type Result struct {
	Status            // terminal classification
	Payload    []byte // opaque result bytes (Success only)
	ErrInfo    *ErrorInfo
	ExitStatus int    // exit status (signal number if signalled)
	Error      string // potential detailed error message (engine origin)

	Time   time.Duration // used user CPU time
	Memory Size          // peak resident memory

	// capabilities the worker could not enforce on its platform
	Degraded []string

	// metrics for the supervisor
	SetUpTime   time.Duration
	RunningTime time.Duration
}

func (r Result) String() string {
	switch r.Status {
	case StatusSuccess:
		return fmt.Sprintf("Result[%d bytes][%v %v][%v %v]", len(r.Payload), r.Time, r.Memory, r.SetUpTime, r.RunningTime)

	case StatusRaisedError:
		return fmt.Sprintf("Result[RaisedError(%v)][%v %v][%v %v]", r.ErrInfo, r.Time, r.Memory, r.SetUpTime, r.RunningTime)

	case StatusKilled:
		return fmt.Sprintf("Result[Killed(%d)][%v %v][%v %v]", r.ExitStatus, r.Time, r.Memory, r.SetUpTime, r.RunningTime)

	case StatusInternalFailure:
		return fmt.Sprintf("Result[InternalFailure(%s)][%v %v][%v %v]", r.Error, r.Time, r.Memory, r.SetUpTime, r.RunningTime)

	default:
		return fmt.Sprintf("Result[%v(%s %d)][%v %v][%v %v]", r.Status, r.Error, r.ExitStatus, r.Time, r.Memory, r.SetUpTime, r.RunningTime)
	}
}
