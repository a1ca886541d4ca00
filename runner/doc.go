// Package runner provides the common value types shared by the confine
// supervisor and worker, including Limits, Size, Status, Result and
// ErrorInfo.
//
// # Status
//
// Status defines the terminal classification of a limited run:
//
//	Success
//	Payload failure
//	    Raised Error
//	Resource Limit Exceeded (CPU Time / Wall Time / Memory)
//	Killed (unexplained termination)
//	Internal Failure (engine origin)
//
// # Size
//
// Size defines size in bytes, underlying type is uint64 so it
// is effective to store up to EiB of size.
//
// # Limits
//
// Limits defines the Memory, CPU-time and wall-time ceilings together
// with the grace period between a graceful stop request and the forced
// kill.
//
// # Result
//
// Result defines the worker outcome including Status, the opaque result
// payload, ErrorInfo for payload failures, ExitStatus, Time, Memory,
// SetUpTime and RunningTime (in real clock).
package runner
