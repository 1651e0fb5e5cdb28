// Package async starts goroutines that log panics instead of crashing the
// process.
package async

import "runtime/debug"

// PanicLogger is the subset of logging.Logger used to report panics.
type PanicLogger interface {
	Error(format string, args ...any)
}

// Go runs fn on a new goroutine. A panic in fn is logged under name.
func Go(logger PanicLogger, name string, fn func()) {
	go func() {
		defer Recover(logger, name)
		fn()
	}()
}

// Recover must be deferred directly. It swallows a panic and logs it with
// the stack.
func Recover(logger PanicLogger, name string) {
	r := recover()
	if r == nil {
		return
	}
	if logger == nil {
		return
	}
	logger.Error("goroutine panic [%s]: %v\n%s", name, r, debug.Stack())
}
