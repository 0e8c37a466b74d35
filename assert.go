//go:build hllppdebug

package hllpp

import "github.com/pkg/errors"

// debugAssert panics with a stack-traced error if cond is false. Compiled
// in only under the hllppdebug build tag, so release builds pay nothing
// for the checks it guards.
func debugAssert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(errors.Errorf(format, args...))
	}
}
