package confine

import "github.com/go-confine/confine/worker"

// TaskFunc is the signature of a runnable task; see worker.TaskFunc
type TaskFunc = worker.TaskFunc

// Kinder is re-exported so task packages can tag their errors with an
// explicit kind without importing the worker package.
type Kinder = worker.Kinder

// Register makes a task runnable by name. It must be called before main
// (typically from init) so the task exists in the re-executed worker
// binary as well; see Init.
func Register(name string, fn TaskFunc) {
	worker.Register(name, fn)
}
