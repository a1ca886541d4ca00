package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/go-confine/confine"
	"github.com/go-confine/confine/runner"
)

// built-in tasks for exercising the engine; registered at init so they
// exist in the re-executed worker binary too
func init() {
	confine.Register("echo", taskEcho)
	confine.Register("sleep", taskSleep)
	confine.Register("burn", taskBurn)
	confine.Register("alloc", taskAlloc)
	confine.Register("spawn", taskSpawn)
}

// taskEcho returns its argument unchanged
func taskEcho(_ context.Context, args []byte) ([]byte, error) {
	return args, nil
}

// taskSleep idles for the given duration, honoring a graceful stop
func taskSleep(ctx context.Context, args []byte) ([]byte, error) {
	d, err := runner.ParseTime(string(args))
	if err != nil {
		return nil, fmt.Errorf("sleep: %w", err)
	}
	select {
	case <-time.After(d):
		return []byte("slept " + d.String()), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// taskBurn spins the CPU for the given duration (forever when no
// argument is given), checking for a stop request between batches
func taskBurn(ctx context.Context, args []byte) ([]byte, error) {
	var until time.Time
	if len(args) > 0 {
		d, err := runner.ParseTime(string(args))
		if err != nil {
			return nil, fmt.Errorf("burn: %w", err)
		}
		until = time.Now().Add(d)
	}
	x := 0
	for {
		for i := 0; i < 1<<22; i++ {
			x += i * i
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if !until.IsZero() && time.Now().After(until) {
			return []byte(strconv.Itoa(x)), nil
		}
	}
}

// taskAlloc allocates and touches the given amount of memory, then
// reports how much it held
func taskAlloc(ctx context.Context, args []byte) ([]byte, error) {
	var size runner.Size
	if err := size.Set(string(args)); err != nil {
		return nil, fmt.Errorf("alloc: %w", err)
	}
	const chunk = 1 << 20
	held := make([][]byte, 0, size.Byte()/chunk+1)
	for allocated := uint64(0); allocated < size.Byte(); allocated += chunk {
		b := make([]byte, chunk)
		for i := 0; i < len(b); i += 4096 {
			b[i] = 1
		}
		held = append(held, b)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
	}
	return []byte(fmt.Sprintf("held %d MiB", len(held))), nil
}

// taskSpawn starts a detached sleeper and returns its pid, for
// exercising the leftover-process sweep
func taskSpawn(_ context.Context, args []byte) ([]byte, error) {
	dur := "60"
	if len(args) > 0 {
		dur = string(args)
	}
	cmd := exec.Command("sleep", dur)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawn: %w", err)
	}
	// deliberately not waited on: the post-run sweep is responsible
	return []byte(strconv.Itoa(cmd.Process.Pid)), nil
}
