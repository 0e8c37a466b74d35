//go:build !hllppdebug

package hllpp

// debugAssert is a no-op in release builds; see assert.go for the
// hllppdebug-tagged version that actually checks cond.
func debugAssert(cond bool, format string, args ...interface{}) {}
