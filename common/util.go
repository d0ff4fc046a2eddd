package common

import "fmt"

// PanicIfErr panics if err is non-nil. Used for invariants the caller has
// already guaranteed hold (e.g. construction-time setup), never for errors
// that can occur during normal operation.
func PanicIfErr(err error) {
	if err != nil {
		panic(err)
	}
}

// Assertf panics with a formatted message when cond is false. Used to guard
// the core invariants that must never be violated by a correct caller, such
// as a victim being chosen while still pinned.
func Assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
