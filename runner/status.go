package runner

// Status is the terminal classification of a limited run
type Status int

// Result Status for a confined task run
const (
	StatusInvalid Status = iota // 0 not initialized
	// Normal
	StatusSuccess // 1 payload returned

	// Payload failure
	StatusRaisedError // 2 payload returned or panicked with an error

	// Resource Limit Exceeded
	StatusCPUTimeExceeded  // 3 consumed CPU time over limit
	StatusWallTimeExceeded // 4 elapsed real time over limit
	StatusMemoryExceeded   // 5 memory over limit

	// Unexplained termination
	StatusKilled // 6 died without reporting an outcome

	// Engine failure
	StatusInternalFailure // 7 supervisor / worker plumbing error
)

var statusString = []string{
	"Invalid",
	"Success",
	"Raised Error",
	"CPU Time Exceeded",
	"Wall Time Exceeded",
	"Memory Exceeded",
	"Killed",
	"Internal Failure",
}

func (t Status) String() string {
	i := int(t)
	if i >= 0 && i < len(statusString) {
		return statusString[i]
	}
	return statusString[0]
}

func (t Status) Error() string {
	return t.String()
}

// IsLimit reports whether the status is a resource-limit classification
func (t Status) IsLimit() bool {
	switch t {
	case StatusCPUTimeExceeded, StatusWallTimeExceeded, StatusMemoryExceeded:
		return true
	}
	return false
}
