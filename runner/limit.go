package runner

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultGracePeriod is the delay between the graceful stop request and
// the forced kill when Limits.GracePeriod is left zero
const DefaultGracePeriod = time.Second

// Limits represents the resource ceilings for a confined run. A zero
// field means the corresponding resource is unlimited.
type Limits struct {
	Memory      Size          // address-space cap (in bytes)
	CPUTime     time.Duration // consumed CPU time cap
	WallTime    time.Duration // elapsed real time cap
	GracePeriod time.Duration // graceful stop to forced kill delay
}

// ConfigError reports an invalid limit value. It is always raised before
// any worker process is spawned.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("confine: invalid %s: %s", e.Field, e.Reason)
}

// WithDefaults returns a copy with the default grace period filled in
func (l Limits) WithDefaults() Limits {
	if l.GracePeriod == 0 {
		l.GracePeriod = DefaultGracePeriod
	}
	return l
}

// Validate checks the limit values. CPU time is enforced through
// setrlimit which counts in whole seconds, so a set CPU limit must be at
// least one second.
func (l Limits) Validate() error {
	if l.CPUTime < 0 {
		return &ConfigError{Field: "cpu_time", Reason: fmt.Sprintf("must be non-negative, got %v", l.CPUTime)}
	}
	if l.CPUTime > 0 && l.CPUTime < time.Second {
		return &ConfigError{Field: "cpu_time", Reason: fmt.Sprintf("must be at least 1s, got %v", l.CPUTime)}
	}
	if l.WallTime < 0 {
		return &ConfigError{Field: "wall_time", Reason: fmt.Sprintf("must be non-negative, got %v", l.WallTime)}
	}
	if l.GracePeriod < 0 {
		return &ConfigError{Field: "grace_period", Reason: fmt.Sprintf("must be non-negative, got %v", l.GracePeriod)}
	}
	return nil
}

func (l Limits) String() string {
	return fmt.Sprintf("Limits[CPU=%v, Wall=%v, Memory=%v, Grace=%v]",
		l.CPUTime, l.WallTime, l.Memory, l.GracePeriod)
}

// ParseTime parses a time limit value: either a bare number of seconds
// ("90", "1.5") or an amount with a unit in s / m / h ("30s", "2m",
// "1.5h"). Full time.Duration syntax is accepted as well.
func ParseTime(str string) (time.Duration, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return 0, fmt.Errorf("time: empty value")
	}
	if v, err := strconv.ParseFloat(str, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("time: negative value %q", str)
		}
		return time.Duration(v * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("time: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("time: negative value %q", str)
	}
	return d, nil
}

// Capability identifies a limit kind the engine may or may not be able
// to enforce on the current platform
type Capability int

const (
	// CapabilityMemory is the address-space cap
	CapabilityMemory Capability = iota
	// CapabilityCPUTime is the consumed CPU time cap
	CapabilityCPUTime
	// CapabilityWallTime is the elapsed real time cap
	CapabilityWallTime
)

var capabilityString = []string{"memory", "cpu_time", "wall_time"}

func (c Capability) String() string {
	if c >= 0 && int(c) < len(capabilityString) {
		return capabilityString[c]
	}
	return "unknown"
}
