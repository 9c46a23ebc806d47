// Package contract implements the check style used for programming-error
// class failures: invalid device enums, out-of-range indices, capability
// mismatches. These are client bugs, not recoverable runtime conditions, so
// they are never surfaced as error returns. In strict mode (development and
// tests that exercise the happy path) a failed check panics; otherwise it is
// logged at fatal severity and the caller degrades to a documented neutral
// value without mutating state.
package contract

import (
	"fmt"
	"sync/atomic"

	"github.com/dshills/inputcore/internal/logging"
)

var strict atomic.Bool

// SetStrict enables or disables strict mode. In strict mode a failed Expect
// panics instead of degrading. Defaults to disabled.
func SetStrict(enabled bool) {
	strict.Store(enabled)
}

// Strict reports whether strict mode is enabled.
func Strict() bool {
	return strict.Load()
}

// logger is replaceable so tests can capture contract failures.
var logger atomic.Pointer[logging.Logger]

// SetLogger sets the logger used to report failed checks.
func SetLogger(l *logging.Logger) {
	logger.Store(l)
}

func activeLogger() *logging.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return logging.Default()
}

// Expect checks a precondition. It returns cond so callers can guard the
// degraded path:
//
//	if !contract.Expect(dev.Valid(), "invalid device") {
//	    return 0
//	}
func Expect(cond bool, msg string) bool {
	if cond {
		return true
	}
	activeLogger().Fatal("%s", msg)
	if strict.Load() {
		panic("contract violation: " + msg)
	}
	return false
}

// Expectf is Expect with a formatted message. The message is only built when
// the check fails.
func Expectf(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	activeLogger().Fatal("%s", msg)
	if strict.Load() {
		panic("contract violation: " + msg)
	}
	return false
}
