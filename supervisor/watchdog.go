package supervisor

import (
	"errors"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/go-confine/confine/runner"
)

type wdState int

const (
	wdArmed wdState = iota
	wdGraceRequested
	wdForceKill
)

// watchdog escalates stop enforcement for one run: a graceful stop
// request carrying the recorded classification, then a forced kill of
// the whole process group once the grace period is spent. The recorded
// classification is what the run reports if the worker never gets its
// own outcome out.
type watchdog struct {
	kill func(sig syscall.Signal) error
	log  *zap.Logger

	mu    sync.Mutex
	st    wdState
	class runner.Status
}

func newWatchdog(pgid int, log *zap.Logger) *watchdog {
	return &watchdog{
		kill: func(sig syscall.Signal) error { return unix.Kill(-pgid, sig) },
		log:  log,
	}
}

// requestGrace records the classification, asks the worker group to stop
// and returns the timer channel for the forced-kill escalation. Repeat
// requests keep the first classification and return nil.
func (w *watchdog) requestGrace(class runner.Status, grace time.Duration) <-chan time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.st != wdArmed {
		return nil
	}
	w.st = wdGraceRequested
	w.class = class
	w.log.Debug("graceful stop requested", zap.Stringer("classification", class))
	if err := w.kill(syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		w.log.Warn("graceful stop signal failed", zap.Error(err))
	}
	return time.After(grace)
}

// forceKill records that the worker outlived its grace period and sends
// the non-ignorable kill to its process group. A run that ends here is
// reported as Killed regardless of the original breach.
func (w *watchdog) forceKill() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.st == wdForceKill {
		return
	}
	w.st = wdForceKill
	w.class = runner.StatusKilled
	w.log.Debug("grace period expired, killing worker group")
	if err := w.kill(syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		w.log.Warn("force kill failed", zap.Error(err))
	}
}

// classification reports the status recorded during escalation, or
// StatusInvalid when no stop was ever requested.
func (w *watchdog) classification() runner.Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.st == wdArmed {
		return runner.StatusInvalid
	}
	return w.class
}
