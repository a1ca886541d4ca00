package confine

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Option tunes the behavior policy of a single Run
type Option func(*options)

type options struct {
	name              string
	raises            bool
	warnings          bool
	terminateChildren bool
	gracePeriod       time.Duration
	wrap              WrapPolicy
	log               *zap.Logger
}

func defaultOptions() options {
	return options{
		raises:            true,
		warnings:          true,
		terminateChildren: true,
	}
}

// WithName sets the display name used for the worker's argv, visible in
// process listings. Defaults to the task name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithRaises controls whether non-success outcomes are returned as
// errors from Run. With raises disabled Run returns a nil error for
// everything except internal failures, and callers branch on
// Outcome.Value() == EMPTY instead. Default true.
func WithRaises(raises bool) Option {
	return func(o *options) { o.raises = raises }
}

// WithWarnings controls the engine's diagnostic output. Disabling it
// silences degraded-limit and payload-size warnings unless a logger was
// provided explicitly. Default true.
func WithWarnings(warnings bool) Option {
	return func(o *options) { o.warnings = warnings }
}

// WithWrapErrors forces task errors matching the policy to surface as
// *WorkerError instead of going through the error-kind registry. Useful
// when a reconstructed error would be misleading outside the worker.
func WithWrapErrors(p WrapPolicy) Option {
	return func(o *options) { o.wrap = p }
}

// WithTerminateChildProcesses controls the post-run sweep of processes
// the task spawned and left behind. Default true.
func WithTerminateChildProcesses(terminate bool) Option {
	return func(o *options) { o.terminateChildren = terminate }
}

// WithGracePeriod overrides the time between the graceful stop request
// and the forced kill for this run, taking precedence over
// Limits.GracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(o *options) { o.gracePeriod = d }
}

// WithLogger routes the engine's diagnostics to the given logger
// regardless of the warnings policy.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

var defaultLog struct {
	once sync.Once
	log  *zap.Logger
}

// logger resolves the effective logger: an explicit one always wins,
// warnings off means silence, otherwise a shared production logger.
func (o *options) logger() *zap.Logger {
	if o.log != nil {
		return o.log
	}
	if !o.warnings {
		return zap.NewNop()
	}
	defaultLog.once.Do(func() {
		log, err := zap.NewProduction()
		if err != nil {
			log = zap.NewNop()
		}
		defaultLog.log = log
	})
	return defaultLog.log
}
