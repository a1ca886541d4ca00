//go:build linux

package supervisor

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/go-confine/confine/runner"
)

// linux wait status encoding: low byte is the termination signal, the
// exit code sits one byte up for a normal exit
func signaled(sig syscall.Signal) syscall.WaitStatus {
	return syscall.WaitStatus(sig)
}

func exited(code int) syscall.WaitStatus {
	return syscall.WaitStatus(code << 8)
}

func TestClassifyExit(t *testing.T) {
	limits := runner.Limits{
		Memory:  runner.Size(64 << 20),
		CPUTime: 2 * time.Second,
	}

	for _, tc := range []struct {
		name      string
		ws        syscall.WaitStatus
		cpu       time.Duration
		maxRSS    runner.Size
		limits    runner.Limits
		want      runner.Status
		suspected bool
	}{
		{
			name:   "sigxcpu is a cpu timeout",
			ws:     signaled(syscall.SIGXCPU),
			limits: limits,
			want:   runner.StatusCPUTimeExceeded,
		},
		{
			name:   "cpu at the cap is a cpu timeout",
			ws:     signaled(syscall.SIGKILL),
			cpu:    2 * time.Second,
			limits: limits,
			want:   runner.StatusCPUTimeExceeded,
		},
		{
			name:   "rss at the cap is a memory breach",
			ws:     signaled(syscall.SIGKILL),
			maxRSS: runner.Size(64 << 20),
			limits: limits,
			want:   runner.StatusMemoryExceeded,
		},
		{
			name:      "segfault under a memory cap is a suspected breach",
			ws:        signaled(syscall.SIGSEGV),
			limits:    limits,
			want:      runner.StatusMemoryExceeded,
			suspected: true,
		},
		{
			name:      "runtime abort under a memory cap is a suspected breach",
			ws:        exited(2),
			limits:    limits,
			want:      runner.StatusMemoryExceeded,
			suspected: true,
		},
		{
			name:   "segfault without a memory cap is a kill",
			ws:     signaled(syscall.SIGSEGV),
			limits: runner.Limits{CPUTime: 2 * time.Second},
			want:   runner.StatusKilled,
		},
		{
			name:   "external sigkill below the caps",
			ws:     signaled(syscall.SIGKILL),
			cpu:    time.Second,
			maxRSS: runner.Size(1 << 20),
			limits: limits,
			want:   runner.StatusKilled,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			st, suspected := classifyExit(tc.ws, tc.cpu, tc.maxRSS, tc.limits)
			assert.Equal(t, tc.want, st)
			assert.Equal(t, tc.suspected, suspected)
		})
	}
}

func TestExitStatus(t *testing.T) {
	assert.Equal(t, 9, exitStatus(signaled(syscall.SIGKILL)))
	assert.Equal(t, 3, exitStatus(exited(3)))
	assert.Equal(t, 0, exitStatus(exited(0)))
}
