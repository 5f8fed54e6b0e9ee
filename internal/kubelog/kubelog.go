// Package kubelog wraps k8s.io/klog/v2 with the small, leveled surface
// the executor, watcher, and exec channel log through: request URLs at
// high verbosity, lifecycle transitions at low verbosity, failures as
// errors. It never logs bodies or credentials.
package kubelog

import "k8s.io/klog/v2"

// Verbosity levels used across the module. Kept small and named so call
// sites read as intent rather than magic numbers.
const (
	// VRequest is the verbosity at which individual request URLs are
	// logged. Never raised to a default-visible level: a URL can embed
	// resource names a caller may consider sensitive.
	VRequest = 4
	// VLifecycle is the verbosity for watch/exec state transitions
	// (opened, reconnecting, reset, closed).
	VLifecycle = 2
)

// Infof logs an unconditional informational message.
func Infof(format string, args ...any) {
	klog.Infof(format, args...)
}

// V(n).Infof logs only when verbosity n is enabled; callers use
// kubelog.V(level).Infof(...) the same way they would klog.V(level).
func V(level int) klog.Verbose {
	return klog.V(klog.Level(level))
}

// Errorf logs an error-level message.
func Errorf(format string, args ...any) {
	klog.Errorf(format, args...)
}
